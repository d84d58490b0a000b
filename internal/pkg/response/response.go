package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// apiError carries a service error code through the webapi fail envelope.
type apiError struct {
	code uint32
	msg  string
}

func (e *apiError) Error() string {
	return e.msg
}

func (e *apiError) Code() uint32 {
	return e.code
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error renders a failure envelope. The HTTP status stays 200; the error code
// travels in the body, which is what API clients switch on.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, http.StatusOK, &apiError{code: uint32(code), msg: message})
}
