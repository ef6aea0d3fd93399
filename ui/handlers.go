package ui

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vcfo/domain/core"
	apperrors "vcfo/internal/errors"
)

const sessionCookieName = "vcfo_session"

// maxUploadBytes caps dataset uploads at 50 MiB.
const maxUploadBytes = 50 << 20

// indexData feeds the home template
type indexData struct {
	FileUploaded bool
	Filename     string
}

// chatRequest is the JSON body of a chat call
type chatRequest struct {
	Prompt string `json:"prompt"`
}

// handleHome renders the upload page
func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, "index.html", indexData{})
}

// handleUpload accepts a CSV or Excel dataset and binds it to the session
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		http.Error(w, "No selected file", http.StatusBadRequest)
		return
	}
	name := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".csv" && ext != ".xlsx" {
		http.Error(w, "Only CSV and Excel files are supported", http.StatusBadRequest)
		return
	}

	destPath := filepath.Join(a.uploadDir, name)
	dest, err := os.Create(destPath)
	if err != nil {
		a.log.Error("could not store upload: %v", err)
		http.Error(w, "Could not store file", http.StatusInternalServerError)
		return
	}
	defer dest.Close()
	if _, err := io.Copy(dest, file); err != nil {
		a.log.Error("could not write upload: %v", err)
		http.Error(w, "Could not store file", http.StatusInternalServerError)
		return
	}

	session := a.sessionID(w, r)
	if err := a.sessions.SetDatasetPath(r.Context(), session, destPath); err != nil {
		a.log.Error("could not bind dataset to session: %v", err)
		http.Error(w, "Could not store file", http.StatusInternalServerError)
		return
	}

	a.log.Info("dataset %s uploaded for session %s", name, session)
	a.renderTemplate(w, "index.html", indexData{FileUploaded: true, Filename: name})
}

// handleChat answers one prompt for the current session
func (a *App) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	session := a.sessionID(w, r)
	payload, err := a.chat.Chat(r.Context(), session, req.Prompt)
	if err != nil {
		a.log.Warn("chat request failed: %v", err)
		status := http.StatusInternalServerError
		switch apperrors.GetCode(err) {
		case apperrors.CodeInvalidInput, apperrors.CodeNotFound:
			status = http.StatusBadRequest
		}
		writeJSONError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Error("response encode failed: %v", err)
	}
}

// sessionID reads the session cookie, minting one when absent
func (a *App) sessionID(w http.ResponseWriter, r *http.Request) core.SessionID {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if id, err := core.ParseSessionID(cookie.Value); err == nil {
			return id
		}
	}
	id := core.SessionID(core.NewID())
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	return id
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
