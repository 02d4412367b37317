package controllers

import (
	"errors"
	"net/http"

	"clinicore-backend/config"
	"clinicore-backend/models"
	"clinicore-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AddEmployeeInput struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
	Password  string `json:"password" binding:"required,min=8"`
	Specialty string `json:"specialty"`
}

type UpdateEmployeeInput struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	Specialty *string `json:"specialty"`
	IsActive  *bool   `json:"isActive"`
}

// AddEmployee creates a staff login and its provider profile
func AddEmployee(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	if !r.Role.Has("appointments:manage") {
		utils.RespondWithError(c, http.StatusForbidden, "Staff access required")
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	var input AddEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var existingUser models.User
	if err := config.DB.Where("email = ?", input.Email).First(&existingUser).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	user := models.User{
		Email:     input.Email,
		Password:  input.Password, // Hashed in BeforeCreate hook
		Name:      input.Name,
		Phone:     input.Phone,
		RoleName:  models.RoleEmployee,
		CompanyID: &companyUUID,
		IsActive:  true,
	}
	employee := models.Employee{
		CompanyID: companyUUID,
		Name:      input.Name,
		Specialty: input.Specialty,
		Phone:     input.Phone,
		IsActive:  true,
	}

	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		employee.UserID = user.ID
		return tx.Create(&employee).Error
	})
	if txErr != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create employee")
		return
	}

	c.JSON(http.StatusCreated, employee)
}

// GetEmployees lists the company's providers
func GetEmployees(c *gin.Context) {
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	var employees []models.Employee
	if err := config.DB.Where("company_id = ?", companyUUID).Find(&employees).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve employees")
		return
	}

	c.JSON(http.StatusOK, employees)
}

// GetEmployee retrieves a specific provider by ID
func GetEmployee(c *gin.Context) {
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	employeeUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	var employee models.Employee
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, employeeUUID).
		First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, employee)
}

// UpdateEmployee updates a provider profile
func UpdateEmployee(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	if !r.Role.Has("appointments:manage") {
		utils.RespondWithError(c, http.StatusForbidden, "Staff access required")
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	employeeUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	var input UpdateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var employee models.Employee
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, employeeUUID).
		First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Name != nil {
		employee.Name = *input.Name
	}
	if input.Phone != nil {
		employee.Phone = *input.Phone
	}
	if input.Specialty != nil {
		employee.Specialty = *input.Specialty
	}
	if input.IsActive != nil {
		employee.IsActive = *input.IsActive
		// Deactivated providers also lose their login
		config.DB.Model(&models.User{}).Where("id = ?", employee.UserID).
			Update("is_active", *input.IsActive)
	}

	if err := config.DB.Save(&employee).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update employee")
		return
	}

	c.JSON(http.StatusOK, employee)
}

// DeleteEmployee soft deletes the provider profile and disables the login
func DeleteEmployee(c *gin.Context) {
	r, ok := requesterFromContext(c)
	if !ok {
		return
	}
	if !r.Role.Has("appointments:manage") {
		utils.RespondWithError(c, http.StatusForbidden, "Staff access required")
		return
	}
	companyUUID, ok := companyFromContext(c)
	if !ok {
		return
	}

	employeeUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
		return
	}

	var employee models.Employee
	if err := config.DB.Where("company_id = ? AND id = ?", companyUUID, employeeUUID).
		First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Employee not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&employee).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", employee.UserID).
			Update("is_active", false).Error
	})
	if txErr != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete employee")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Employee deleted successfully"})
}
