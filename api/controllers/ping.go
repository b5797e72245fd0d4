package controllers

import (
	"net/http"

	"github.com/xkartlabs/xkart-backend/api/middleware"
	"github.com/xkartlabs/xkart-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if principal := middleware.PrincipalFromContext(r.Context()); principal != "" {
			payload["principal"] = principal
		}
		responses.WriteSuccess(w, payload)
	}
}

func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "admin", "status": "ok"}
		if principal := middleware.PrincipalFromContext(r.Context()); principal != "" {
			payload["principal"] = principal
		}
		responses.WriteSuccess(w, payload)
	}
}
