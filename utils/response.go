package utils

import "github.com/gin-gonic/gin"

func JSONSuccess(c *gin.Context, code int, data gin.H) {
    payload := gin.H{"success": true}
    for k, v := range data {
        payload[k] = v
    }
    c.JSON(code, payload)
}

func JSONError(c *gin.Context, code int, message string) {
    c.JSON(code, gin.H{"success": false, "error": message})
}
