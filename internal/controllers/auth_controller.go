package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shule_transport/internal/config"
	"shule_transport/internal/middleware"
	"shule_transport/internal/models"
)

type signupStudent struct {
	Name    string `json:"name" binding:"required"`
	Gender  string `json:"gender"`
	Address string `json:"address"`
}

type signupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`

	// Parent signup may attach students right away.
	Students []signupStudent `json:"students"`

	// Driver signup may register the vehicle in the same call.
	VehicleRegistration string `json:"vehicle_registration"`
	VehicleModel        string `json:"vehicle_model"`
	SeatCount           int    `json:"seat_count"`
}

func SignupUser(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	role, err := validateAndNormalizeRole(input.Role)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	input.Role = role

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not hash password")
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		respondError(c, http.StatusInternalServerError, "could not start transaction")
		return
	}

	user, err := createUserRecord(tx, input, hashedPassword)
	if err != nil {
		tx.Rollback()
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			respondError(c, http.StatusConflict, "email already in use")
			return
		}
		respondError(c, http.StatusInternalServerError, "could not create user: "+err.Error())
		return
	}

	if err := createActorRecords(tx, &user, input); err != nil {
		tx.Rollback()
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := tx.Commit().Error; err != nil {
		respondError(c, http.StatusInternalServerError, "could not commit transaction: "+err.Error())
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not generate token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"token":  token,
		"user":   prepareUserResponse(user),
	})
}

func LoginUser(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	query := config.DB.Where("email = ?", body.Email).
		Preload("Students").
		Preload("Vehicles")

	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusUnauthorized, "user not found or invalid credentials")
		} else {
			respondError(c, http.StatusInternalServerError, "database error: "+err.Error())
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "incorrect password")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not generate token")
		return
	}

	respondOK(c, gin.H{
		"token": token,
		"user":  prepareUserResponse(user),
	})
}

// UpdateNotificationPrefs lets a parent toggle the per-event
// notification settings stored on their profile.
func UpdateNotificationPrefs(c *gin.Context) {
	userID := authedUserID(c)

	var body models.NotificationPrefs
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}

	if body.WhenBusMakeHomePickup != nil {
		user.Meta.Notifications.WhenBusMakeHomePickup = body.WhenBusMakeHomePickup
	}
	if body.WhenBusMakesHomeDropOff != nil {
		user.Meta.Notifications.WhenBusMakesHomeDropOff = body.WhenBusMakesHomeDropOff
	}

	if err := config.DB.Model(&user).Update("meta", user.Meta).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "could not update preferences: "+err.Error())
		return
	}

	respondOK(c, gin.H{"meta": user.Meta})
}

func validateAndNormalizeRole(roleInput string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(roleInput))
	if role == "" {
		role = "parent"
	}
	switch role {
	case "parent", "driver", "admin":
		return role, nil
	default:
		return "", errors.New("invalid role")
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func createUserRecord(tx *gorm.DB, input signupInput, hashedPassword string) (models.User, error) {
	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashedPassword,
		Phone:    input.Phone,
		Role:     input.Role,
	}
	if err := tx.Create(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// createActorRecords creates the role-specific rows attached to a new
// user: students for parents, the vehicle for drivers.
func createActorRecords(tx *gorm.DB, user *models.User, input signupInput) error {
	switch user.Role {
	case "parent":
		for _, s := range input.Students {
			student := models.Student{
				Name:     s.Name,
				Gender:   s.Gender,
				Address:  s.Address,
				ParentID: user.ID,
			}
			if err := tx.Create(&student).Error; err != nil {
				return errors.New("could not create student: " + err.Error())
			}
		}
	case "driver":
		if input.VehicleRegistration == "" {
			return nil // vehicle can be registered later
		}
		if input.SeatCount <= 0 {
			return errors.New("seat_count is required when registering a vehicle")
		}
		vehicle := models.Vehicle{
			DriverID:            user.ID,
			VehicleRegistration: input.VehicleRegistration,
			VehicleModel:        input.VehicleModel,
			SeatCount:           input.SeatCount,
			AvailableSeats:      input.SeatCount,
			Status:              models.VehicleActive,
		}
		if err := tx.Create(&vehicle).Error; err != nil {
			return errors.New("could not create vehicle: " + err.Error())
		}
	}
	return nil
}

// prepareUserResponse strips the password hash and shapes the profile
// for API responses.
func prepareUserResponse(user models.User) gin.H {
	resp := gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Phone,
		"role":  user.Role,
		"meta":  user.Meta,
	}
	if len(user.Students) > 0 {
		resp["students"] = user.Students
	}
	if len(user.Vehicles) > 0 {
		resp["vehicles"] = user.Vehicles
	}
	return resp
}
