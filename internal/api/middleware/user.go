package middleware

import "github.com/gin-gonic/gin"

func setUser(c *gin.Context, id, email, role string) {
	c.Set("user_id", id)
	c.Set("user_email", email)
	c.Set("user_role", role)
}

// GetUserID returns the authenticated caller, or "" when there is none
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

func GetUserEmail(c *gin.Context) string {
	return c.GetString("user_email")
}

func GetUserRole(c *gin.Context) string {
	return c.GetString("user_role")
}
