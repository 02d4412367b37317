package controllers

import (
	"net/http"

	"clinicore-backend/config"
	"clinicore-backend/models"
	"clinicore-backend/services"
	"clinicore-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requesterFromContext builds the normalized requester from the claims the
// auth middleware stored. Role strings are normalized here so the service
// layer only ever sees models.Role.
func requesterFromContext(c *gin.Context) (models.Requester, bool) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return models.Requester{}, false
	}
	userStr, _ := userID.(string)
	userUUID, err := uuid.Parse(userStr)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return models.Requester{}, false
	}

	roleName, _ := c.Get("role")
	roleStr, _ := roleName.(string)

	r := models.Requester{
		UserID:   userUUID,
		Role:     models.NormalizeRole(roleStr),
		IsMaster: roleStr == models.RoleMaster,
	}

	if companyID, exists := c.Get("companyId"); exists {
		if s, ok := companyID.(string); ok && s != "" {
			companyUUID, err := uuid.Parse(s)
			if err != nil {
				utils.RespondWithError(c, http.StatusInternalServerError, "Invalid company ID format")
				return models.Requester{}, false
			}
			r.CompanyID = &companyUUID
		}
	}
	return r, true
}

// companyFromContext resolves the tenant for the plain CRUD surface.
// Master users pass ?companyId=; everyone else is bound to their own.
func companyFromContext(c *gin.Context) (uuid.UUID, bool) {
	companyID, exists := c.Get("companyId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company ID not found in context")
		return uuid.Nil, false
	}
	s, _ := companyID.(string)
	if s == "" {
		if q := c.Query("companyId"); q != "" {
			s = q
		} else {
			utils.RespondWithError(c, http.StatusBadRequest, "companyId query parameter required for master users")
			return uuid.Nil, false
		}
	}
	companyUUID, err := uuid.Parse(s)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid company ID format")
		return uuid.Nil, false
	}
	return companyUUID, true
}

// selectedCompany parses the optional master-only tenant selection.
func selectedCompany(c *gin.Context) (*uuid.UUID, bool) {
	q := c.Query("companyId")
	if q == "" {
		return nil, true
	}
	companyUUID, err := uuid.Parse(q)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid companyId format")
		return nil, false
	}
	return &companyUUID, true
}

// respondServiceError translates the service error taxonomy to a status
// code. Internal details stay in the log, not the response.
func respondServiceError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		config.Log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		utils.RespondWithError(c, status, "Internal server error")
		return
	}
	utils.RespondWithError(c, status, err.Error())
}
