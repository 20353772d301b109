// pkg/handlers/mocks.go
package handlers

import (
	"scanhub/pkg/models"

	"github.com/stretchr/testify/mock"
)

// MockScanService implements ScanServiceInterface for testing
type MockScanService struct {
	mock.Mock
}

func (m *MockScanService) Submit(targetID, policyID string) (*models.ScanSubmission, error) {
	args := m.Called(targetID, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanSubmission), args.Error(1)
}

func (m *MockScanService) GetJob(id string) (*models.ScanJob, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanJob), args.Error(1)
}

func (m *MockScanService) GetProgress(id string) (*models.ScanProgress, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanProgress), args.Error(1)
}

func (m *MockScanService) Cancel(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockScanService) GetReport(id string) (*models.ScanJob, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanJob), args.Error(1)
}

// MockFindingService implements FindingServiceInterface for testing
type MockFindingService struct {
	mock.Mock
}

func (m *MockFindingService) QueryFindings(q models.FindingQuery) []models.Finding {
	args := m.Called(q)
	return args.Get(0).([]models.Finding)
}

func (m *MockFindingService) UpdateFindingStatus(id string, status models.FindingStatus, justification string) (models.Finding, error) {
	args := m.Called(id, status, justification)
	return args.Get(0).(models.Finding), args.Error(1)
}

// MockTargetService implements TargetServiceInterface for testing
type MockTargetService struct {
	mock.Mock
}

func (m *MockTargetService) Create(target models.ScanTarget) (models.ScanTarget, error) {
	args := m.Called(target)
	return args.Get(0).(models.ScanTarget), args.Error(1)
}

func (m *MockTargetService) Get(id string) (models.ScanTarget, error) {
	args := m.Called(id)
	return args.Get(0).(models.ScanTarget), args.Error(1)
}

func (m *MockTargetService) List() []models.ScanTarget {
	args := m.Called()
	return args.Get(0).([]models.ScanTarget)
}

func (m *MockTargetService) Update(id string, target models.ScanTarget) (models.ScanTarget, error) {
	args := m.Called(id, target)
	return args.Get(0).(models.ScanTarget), args.Error(1)
}

func (m *MockTargetService) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockPolicyService implements PolicyServiceInterface for testing
type MockPolicyService struct {
	mock.Mock
}

func (m *MockPolicyService) Create(policy models.ScanPolicy) (models.ScanPolicy, error) {
	args := m.Called(policy)
	return args.Get(0).(models.ScanPolicy), args.Error(1)
}

func (m *MockPolicyService) Get(id string) (models.ScanPolicy, error) {
	args := m.Called(id)
	return args.Get(0).(models.ScanPolicy), args.Error(1)
}

func (m *MockPolicyService) List() []models.ScanPolicy {
	args := m.Called()
	return args.Get(0).([]models.ScanPolicy)
}

func (m *MockPolicyService) Update(id string, policy models.ScanPolicy) (models.ScanPolicy, error) {
	args := m.Called(id, policy)
	return args.Get(0).(models.ScanPolicy), args.Error(1)
}

func (m *MockPolicyService) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}
