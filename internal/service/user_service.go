// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"

	"plagia-detect-go/internal/model"
	"plagia-detect-go/internal/repository"
	"plagia-detect-go/pkg/log"
	"plagia-detect-go/pkg/token"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials 表示用户名或密码错误。
var ErrInvalidCredentials = errors.New("用户名或密码错误")

// ErrUsernameTaken 表示用户名已被占用。
var ErrUsernameTaken = errors.New("用户名已存在")

// UserService 接口定义了用户相关的业务操作。
// 只有参考语料库管理接口需要登录。
type UserService interface {
	Register(username, password string) (*model.User, error)
	Login(username, password string) (string, *model.User, error)
	GetProfile(username string) (*model.User, error)
}

type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register 创建一个新用户，密码使用 bcrypt 加密存储。
func (s *userService) Register(username, password string) (*model.User, error) {
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Password: string(hashed),
		Role:     "admin",
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	log.Infof("[UserService] 用户注册成功: %s", username)
	return user, nil
}

// Login 校验用户名密码并签发 access token。
func (s *userService) Login(username, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", nil, err
	}

	log.Infof("[UserService] 用户登录成功: %s", username)
	return accessToken, user, nil
}

// GetProfile 根据用户名获取用户信息。
func (s *userService) GetProfile(username string) (*model.User, error) {
	return s.userRepo.FindByUsername(username)
}
