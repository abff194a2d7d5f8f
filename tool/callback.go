package tool

import (
	"github.com/gin-gonic/gin"
	"github.com/moyoez/fitsnap-go/types"
)

func FastReturnError(msg string) gin.H {
	return gin.H{
		"error": msg,
	}
}

// FastReturnFailure adds the failure kind so the ui can tell a rejected photo from a network error.
func FastReturnFailure(kind types.FailureKind, msg string) gin.H {
	return gin.H{
		"error": msg,
		"kind":  string(kind),
	}
}

func FastReturnSuccess() gin.H {
	return gin.H{
		"status": "ok",
	}
}
