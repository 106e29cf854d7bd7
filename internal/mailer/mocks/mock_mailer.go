package mocks

import (
	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to []string, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}
