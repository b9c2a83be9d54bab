package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"signalbot/pkg/utils"
)

// Recovery - middleware для восстановления после паники в handlers
//
// Перехватывает panic, логирует сообщение и stack trace,
// возвращает клиенту 500 без деталей паники.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				utils.L().Error("panic in http handler",
					utils.String("panic", fmt.Sprint(rec)),
					utils.String("path", r.URL.Path),
					utils.RequestID(RequestIDFrom(r.Context())),
					utils.String("stack", string(debug.Stack())),
				)
				writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
