package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/repository"
	"github.com/AbhishekX2004/LearnatoForum/internal/s3"
)

type UpdateUserDTO struct {
	DisplayName *string
	AvatarURL   *string
}

type AvatarUpload struct {
	UploadURL     string `json:"uploadUrl"`
	FinalImageURL string `json:"finalImageUrl"`
}

type UserService interface {
	GetUserProfileByID(ctx context.Context, userID uuid.UUID) (*model.PublicProfile, error)
	UpdateUserProfile(ctx context.Context, userID uuid.UUID, dto UpdateUserDTO) (*model.User, error)
	AvatarUploadURL(ctx context.Context, userID uuid.UUID) (*AvatarUpload, error)
	RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error
}

type userService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.DeviceTokenRepository
	presigner *s3.FilePresigner
}

// NewUserService wires profile operations. presigner may be nil when object
// storage is not configured.
func NewUserService(userRepo repository.UserRepository, tokenRepo repository.DeviceTokenRepository, presigner *s3.FilePresigner) UserService {
	return &userService{userRepo: userRepo, tokenRepo: tokenRepo, presigner: presigner}
}

func (s *userService) GetUserProfileByID(ctx context.Context, userID uuid.UUID) (*model.PublicProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	profile := user.Public()
	return &profile, nil
}

func (s *userService) UpdateUserProfile(ctx context.Context, userID uuid.UUID, dto UpdateUserDTO) (*model.User, error) {
	if dto.DisplayName == nil {
		return nil, ErrEmptyDisplayName
	}
	name := strings.TrimSpace(*dto.DisplayName)
	if name == "" {
		return nil, ErrEmptyDisplayName
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, &name, dto.AvatarURL); err != nil {
		return nil, err
	}

	return s.userRepo.FindByID(ctx, userID)
}

func (s *userService) AvatarUploadURL(ctx context.Context, userID uuid.UUID) (*AvatarUpload, error) {
	if s.presigner == nil {
		return nil, ErrUploadsDisabled
	}

	objectKey := "user-avatars/" + userID.String() + "/" + uuid.NewString() + ".jpg"
	uploadURL, err := s.presigner.GeneratePresignedUploadURL(ctx, objectKey)
	if err != nil {
		return nil, err
	}

	return &AvatarUpload{UploadURL: uploadURL, FinalImageURL: s.presigner.PublicURL(objectKey)}, nil
}

func (s *userService) RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	return s.tokenRepo.Register(ctx, userID, strings.TrimSpace(token))
}
