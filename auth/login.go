package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/quantumclimb/curryhouse-api/config"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler authenticates the restaurant operator against the
// env-configured credentials and issues a 24h dashboard token.
func LoginHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(cfg.Admin.OperatorEmail)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(cfg.Admin.OperatorPassword)) == 1
		if cfg.Admin.OperatorEmail == "" || !emailOK || !passOK {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  req.Email,
			"role": "operator",
			"iat":  time.Now().Unix(),
			"exp":  time.Now().Add(24 * time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(cfg.Admin.JWTSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": signed})
	}
}
