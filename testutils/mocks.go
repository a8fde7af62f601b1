package testutils

import (
	"github.com/stretchr/testify/mock"
)

type MockCodeSender struct {
	mock.Mock
}

func (m *MockCodeSender) SendSignInCode(recipient string, code string) error {
	args := m.Called(recipient, code)
	return args.Error(0)
}
