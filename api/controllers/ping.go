package controllers

import (
	"net/http"

	"github.com/meridianerp/vendorhub-backend/api/middleware"
	"github.com/meridianerp/vendorhub-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"scope": "private", "status": "ok"}
		if user := middleware.UserIDFromContext(r.Context()); user != "" {
			payload["user_id"] = user
		}
		if roles := middleware.RolesFromContext(r.Context()); len(roles) > 0 {
			payload["roles"] = roles
		}
		responses.WriteSuccess(w, payload)
	}
}
