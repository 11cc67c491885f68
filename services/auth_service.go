package services

import (
	"errors"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/repositories"
	"github.com/oyolcinar/dus-backend-sub003/utils"
)

type AuthService struct {
	DB    *gorm.DB
	Users *repositories.UserRepository
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db, Users: repositories.NewUserRepository(db)}
}

// Register creates a student account and returns a signed token alongside
// the user.
func (s *AuthService) Register(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "email, username and password are required"})
	}
	if !strings.Contains(req.Email, "@") {
		return c.Status(400).JSON(fiber.Map{"error": "email is not valid"})
	}
	if len(req.Password) < 8 {
		return c.Status(400).JSON(fiber.Map{"error": "password must be at least 8 characters"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("❌ [AUTH] password hash failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to register"})
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
	}
	if err := s.Users.Create(user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return c.Status(400).JSON(fiber.Map{"error": "email already registered"})
		}
		if errors.Is(err, repositories.ErrUsernameTaken) {
			return c.Status(400).JSON(fiber.Map{"error": "username already taken"})
		}
		log.Printf("❌ [AUTH] register failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to register"})
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		log.Printf("❌ [AUTH] token sign failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to register"})
	}

	log.Printf("👤 Registered user %d (%s)", user.ID, user.Username)
	return c.Status(201).JSON(fiber.Map{"token": token, "user": user})
}

// Login checks credentials and returns a fresh token. Wrong email and
// wrong password answer identically.
func (s *AuthService) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "email and password are required"})
	}

	user, err := s.Users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(401).JSON(fiber.Map{"error": "invalid email or password"})
		}
		log.Printf("❌ [AUTH] login lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to log in"})
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid email or password"})
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		log.Printf("❌ [AUTH] token sign failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to log in"})
	}

	if err := s.Users.TouchLastActive(user.ID); err != nil {
		log.Printf("⚠️  [AUTH] last-active touch failed for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{"token": token, "user": user})
}

// Me returns the authenticated user's own record.
func (s *AuthService) Me(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	user, err := s.Users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		log.Printf("❌ [AUTH] me lookup failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch profile"})
	}
	return c.JSON(user)
}

// UpdateProfile changes the username and/or avatar. Avatar arrives as a
// multipart file and lands in object storage (or the local uploads dir
// when R2 is not configured).
func (s *AuthService) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	updates := map[string]interface{}{}

	if username := strings.TrimSpace(c.FormValue("username")); username != "" {
		updates["username"] = username
	}

	if avatar, err := c.FormFile("avatar"); err == nil && avatar.Size > 0 {
		if avatar.Size > 5*1024*1024 {
			return c.Status(400).JSON(fiber.Map{"error": "avatar too large (max 5MB)"})
		}
		ext := filepath.Ext(avatar.Filename)
		if ext == "" {
			ext = ".png"
		}
		url, err := utils.StoreUpload(avatar, "avatars/"+uuid.NewString()+ext)
		if err != nil {
			log.Printf("❌ [AUTH] avatar upload failed for user %d: %v", userID, err)
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload avatar"})
		}
		updates["avatar_url"] = url
	}

	if len(updates) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "nothing to update"})
	}

	if err := s.Users.UpdateProfile(userID, updates); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		log.Printf("❌ [AUTH] profile update failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update profile"})
	}

	user, err := s.Users.GetByID(userID)
	if err != nil {
		log.Printf("❌ [AUTH] profile reload failed for user %d: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update profile"})
	}
	return c.JSON(user)
}
