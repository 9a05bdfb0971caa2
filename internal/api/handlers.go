package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/heartguard-api/internal/auth"
	"github.com/heartguard-api/internal/domain"
	"github.com/heartguard-api/internal/middleware"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=100"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type advisoryRequest struct {
	Query string `json:"query" binding:"required"`
}

// handleHealth reports service status and the active classification path.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"classifier": s.assessment.ClassifierName(),
		"timestamp":  time.Now().UTC(),
	})
}

// handleRegister creates a new account. The first registered account
// becomes the admin.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password (min 8 chars) are required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The store promotes the first account to admin atomically.
	user := &domain.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		s.log.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	s.log.WithFields(logrus.Fields{
		"username": user.Username,
		"is_admin": user.IsAdmin,
	}).Info("User registered")

	c.JSON(http.StatusCreated, gin.H{
		"user": user,
	})
}

// handleLogin verifies credentials and issues an access token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := s.users.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		s.log.WithError(err).Error("Failed to load user during login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(c.Request.Context(), user.ID, now); err != nil {
		// Login still succeeds; the timestamp is best effort.
		s.log.WithError(err).Warn("Failed to update last login")
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		s.log.WithError(err).Error("Failed to issue access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(s.tokens.TokenTTL().Seconds()),
		"user":         user,
	})
}

// handleSubmitAssessment validates the submitted vitals, classifies
// them and persists the resulting record.
func (s *Server) handleSubmitAssessment(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed form data"})
		return
	}

	record, err := s.assessment.Submit(c.Request.Context(), userID, c.Request.PostForm)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": vErr.Message,
				"field": vErr.Field,
				"code":  domain.ErrCodeValidation,
			})
			return
		}

		var sErr *domain.StorageError
		if errors.As(err, &sErr) {
			// The verdict was computed but could not be persisted.
			// Withhold it rather than hand out an unrecorded result.
			s.log.WithError(err).Error("Failed to persist assessment")
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "assessment could not be recorded, please retry",
				"code":  domain.ErrCodeStorage,
			})
			return
		}

		s.log.WithError(err).Error("Assessment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assessment failed"})
		return
	}

	_, chart, err := s.assessment.History(c.Request.Context(), userID)
	if err != nil {
		// The record is already saved; return it without the chart.
		s.log.WithError(err).Warn("Failed to load history after assessment")
		chart = domain.ChartSeries{Dates: []string{}, Systolic: []float64{}, Cholesterol: []float64{}}
	}

	c.JSON(http.StatusCreated, gin.H{
		"record_id": record.ID,
		"verdict":   record.Verdict.String(),
		"label":     record.Label,
		"chart":     chart,
	})
}

// handleGetHistory returns the caller's records plus the chart series.
func (s *Server) handleGetHistory(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		return
	}

	records, chart, err := s.assessment.History(c.Request.Context(), userID)
	if err != nil {
		s.log.WithError(err).Error("Failed to load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"chart":   chart,
	})
}

// handleAskAdvisory forwards a health question to the advisory gateway.
// The gateway degrades internally, so this endpoint always answers 200.
func (s *Server) handleAskAdvisory(c *gin.Context) {
	var req advisoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	resp := s.advisory.Ask(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, resp)
}

// handleAdminOverview summarizes accounts and assessments for the
// admin dashboard.
func (s *Server) handleAdminOverview(c *gin.Context) {
	users, err := s.users.ListUsers(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to list users for overview")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load overview"})
		return
	}

	records, err := s.records.ListAllRecords(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to list records for overview")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load overview"})
		return
	}

	highRisk := 0
	for _, r := range records {
		if r.Verdict == domain.VerdictHighRisk {
			highRisk++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":       len(users),
		"total_assessments": len(records),
		"high_risk_count":   highRisk,
		"users":             users,
		"records":           records,
	})
}

// currentUserID parses the authenticated user ID set by the auth
// middleware. A missing or malformed ID aborts the request.
func (s *Server) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(middleware.ContextUserID)
	userID, err := uuid.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authentication context"})
		return uuid.Nil, false
	}
	return userID, true
}
