package repos

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tolkbridge/dispatch/internal/db/models"
)

type UserRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestUserRepository(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}

func (s *UserRepositoryTestSuite) TestGetUserByID() {
	user := s.createTestTranslator("anna", "sv", "en", true)

	found, err := s.userRepo.GetUserByID(s.ctx, user.ID)
	s.NoError(err)
	s.Equal(user.Username, found.Username)

	_, err = s.userRepo.GetUserByID(s.ctx, 999)
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserRepositoryTestSuite) TestListAvailableTranslators() {
	s.createTestTranslator("anna", "sv", "en", true)
	s.createTestTranslator("bjorn", "sv", "de", false)

	busy := &models.User{
		Username:     "carla",
		Role:         models.UserRoleTranslator,
		LanguageFrom: "sv",
		LanguageTo:   "en",
		Available:    false,
	}
	s.Require().NoError(s.userRepo.CreateUser(s.ctx, busy))

	customer := &models.User{Username: "dora", Role: models.UserRoleCustomer}
	s.Require().NoError(s.userRepo.CreateUser(s.ctx, customer))

	translators, err := s.userRepo.ListAvailableTranslators(s.ctx)
	s.NoError(err)
	s.Len(translators, 2)
	for _, tr := range translators {
		s.Equal(models.UserRoleTranslator, tr.Role)
		s.True(tr.Available)
	}
}
