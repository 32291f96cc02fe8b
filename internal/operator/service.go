package operator

import (
	"errors"
	"time"

	"exchange-ledger/pkg/crypto"
	"exchange-ledger/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
)

var (
	ErrOperatorNotFound = errors.New("operator not found")
	ErrOperatorExists   = errors.New("operator already exists")
	ErrOperatorInactive = errors.New("operator is inactive")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalid2FACode   = errors.New("invalid 2FA code")
)

// Service 操作员服务接口
type Service interface {
	Login(req *LoginRequest, ip string) (*LoginResponse, error)
	GetOperator(operatorID uint) (*Operator, error)
	CreateOperator(email, password string, role Role) (*Operator, error)
	ChangePassword(operatorID uint, oldPassword, newPassword string) error
	Enable2FA(operatorID uint) (string, error)
	Verify2FA(operatorID uint, code string) bool

	// VerifyPassword / VerifySecretKey 提现双重授权的两个独立校验
	VerifyPassword(operatorID uint, password string) bool
	VerifySecretKey(secretKey string) bool

	// EnsureBootstrapOperator 首次启动时种入默认操作员
	EnsureBootstrapOperator(email, password string) error
}

type service struct {
	repo          Repository
	jwtSecret     []byte
	jwtExpiry     time.Duration
	secretKeyHash string
}

// NewService 创建操作员服务
func NewService(repo Repository, jwtSecret string, jwtExpiry time.Duration, secretKeyHash string) Service {
	return &service{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		jwtExpiry:     jwtExpiry,
		secretKeyHash: secretKeyHash,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	TwoFACode string `json:"two_fa_code"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt int64     `json:"expires_at"`
	Operator  *Operator `json:"operator"`
}

// Login 操作员登录
func (s *service) Login(req *LoginRequest, ip string) (*LoginResponse, error) {
	op, err := s.repo.GetByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, ErrOperatorNotFound
	}

	if op.Status != OperatorStatusActive {
		return nil, ErrOperatorInactive
	}

	if !crypto.CheckPassword(req.Password, op.PasswordHash) {
		return nil, ErrInvalidPassword
	}

	if op.TwoFAEnabled {
		if req.TwoFACode == "" || !totp.Validate(req.TwoFACode, op.TwoFASecret) {
			return nil, ErrInvalid2FACode
		}
	}

	expiresAt := time.Now().Add(s.jwtExpiry)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"operator_id": op.ID,
		"uuid":        op.UUID,
		"email":       op.Email,
		"role":        string(op.Role),
		"exp":         expiresAt.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	op.LastLoginAt = &now
	op.LastLoginIP = ip
	_ = s.repo.Update(op)

	logger.Infof("Operator logged in: %s from %s", op.Email, ip)
	return &LoginResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt.Unix(),
		Operator:  op,
	}, nil
}

// GetOperator 获取操作员
func (s *service) GetOperator(operatorID uint) (*Operator, error) {
	op, err := s.repo.GetByID(operatorID)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, ErrOperatorNotFound
	}
	return op, nil
}

// CreateOperator 创建操作员
func (s *service) CreateOperator(email, password string, role Role) (*Operator, error) {
	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOperatorExists
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	op := &Operator{
		UUID:         uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       OperatorStatusActive,
	}

	if err := s.repo.Create(op); err != nil {
		return nil, err
	}

	logger.Infof("Operator created: %s (%s)", op.Email, op.Role)
	return op, nil
}

// ChangePassword 修改密码
func (s *service) ChangePassword(operatorID uint, oldPassword, newPassword string) error {
	op, err := s.repo.GetByID(operatorID)
	if err != nil {
		return err
	}
	if op == nil {
		return ErrOperatorNotFound
	}

	if !crypto.CheckPassword(oldPassword, op.PasswordHash) {
		return ErrInvalidPassword
	}

	newHash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}

	op.PasswordHash = newHash
	return s.repo.Update(op)
}

// Enable2FA 启用两步验证
func (s *service) Enable2FA(operatorID uint) (string, error) {
	op, err := s.repo.GetByID(operatorID)
	if err != nil {
		return "", err
	}
	if op == nil {
		return "", ErrOperatorNotFound
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "ExchangeLedger", AccountName: op.Email})
	if err != nil {
		return "", err
	}

	op.TwoFASecret = key.Secret()
	op.TwoFAEnabled = true
	if err := s.repo.Update(op); err != nil {
		return "", err
	}

	return key.Secret(), nil
}

// Verify2FA 校验两步验证码
func (s *service) Verify2FA(operatorID uint, code string) bool {
	op, err := s.repo.GetByID(operatorID)
	if err != nil || op == nil || !op.TwoFAEnabled {
		return false
	}
	return totp.Validate(code, op.TwoFASecret)
}

// VerifyPassword 校验操作员密码
func (s *service) VerifyPassword(operatorID uint, password string) bool {
	op, err := s.repo.GetByID(operatorID)
	if err != nil || op == nil || op.Status != OperatorStatusActive {
		return false
	}
	return crypto.CheckPassword(password, op.PasswordHash)
}

// VerifySecretKey 校验平台处理密钥，与操作员密码相互独立
func (s *service) VerifySecretKey(secretKey string) bool {
	if s.secretKeyHash == "" || secretKey == "" {
		return false
	}
	return crypto.SecureCompare(crypto.SHA256([]byte(secretKey)), s.secretKeyHash)
}

// EnsureBootstrapOperator 种入默认操作员
func (s *service) EnsureBootstrapOperator(email, password string) error {
	count, err := s.repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := s.CreateOperator(email, password, RoleAdmin); err != nil {
		return err
	}
	logger.Warnf("Bootstrap operator seeded: %s, change the password immediately", email)
	return nil
}
