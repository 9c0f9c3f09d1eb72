package handlers

import (
	"carelog/internal/utils"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// DispatchAuthMiddleware guards the internal trigger endpoints with a
// shared secret. The external scheduler is the only intended caller;
// end-user authentication lives in the main app backend.
func DispatchAuthMiddleware() gin.HandlerFunc {
	token := os.Getenv("DISPATCH_TOKEN")

	return func(c *gin.Context) {
		if token == "" || c.GetHeader("X-Dispatch-Token") != token {
			log.Printf("Rejected dispatch request from %s for %s", utils.GetRealClientIP(c), c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid dispatch token"})
			return
		}
		c.Next()
	}
}
