package handler

import (
	"net/http"

	"foodshare-backend/bootstrap"
	"foodshare-backend/internal/interfaces/router"
)

var httpHandler http.Handler

func init() {
	fiberApp, err := bootstrap.New()
	if err != nil {
		panic("app create: " + err.Error())
	}
	httpHandler = router.Handler(fiberApp)
}

// Handler is the serverless entry point. All requests are rewritten here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	httpHandler.ServeHTTP(w, r)
}
