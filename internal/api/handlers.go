package api

import (
	"net/http"
	"strconv"
	"strings"

	"modelstudio/internal/apperr"
	"modelstudio/internal/catalog"
	"modelstudio/internal/conversation"
	"modelstudio/internal/storage"
)

const (
	defaultMessageLimit = 100
	maxMessageLimit     = 1000
)

type profileRequest struct {
	Name         *string `json:"name"`
	Provider     *string `json:"provider"`
	BaseModel    *string `json:"base_model"`
	SystemPrompt *string `json:"system_prompt"`
}

type chatRequest struct {
	Title          *string `json:"title"`
	ModelProfileID *string `json:"model_profile_id"`
}

type messageRequest struct {
	Content        string  `json:"content"`
	ModelProfileID *string `json:"model_profile_id"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.SystemPrompt == nil {
		s.fail(w, r, apperr.BadRequest("missing required fields: system_prompt"))
		return
	}
	p, err := s.service.CreateProfile(r.Context(), conversation.ProfileInput{
		Name:         deref(req.Name),
		Provider:     deref(req.Provider),
		BaseModel:    deref(req.BaseModel),
		SystemPrompt: *req.SystemPrompt,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	out, err := s.service.ListProfiles(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "model profile")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.service.GetProfile(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "model profile")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.service.UpdateProfile(r.Context(), id, storage.ProfilePatch{
		Name:         req.Name,
		Provider:     req.Provider,
		BaseModel:    req.BaseModel,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "model profile")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.DeleteProfile(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) createChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	profileID, err := optionalID(req.ModelProfileID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.service.CreateChat(r.Context(), req.Title, profileID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	out, err := s.service.ListChats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "chat")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.service.GetChat(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) patchChat(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "chat")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	profileID, err := optionalID(req.ModelProfileID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.service.UpdateChat(r.Context(), id, storage.ChatPatch{Title: req.Title, ModelProfileID: profileID})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "chat")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.fail(w, r, apperr.BadRequest("limit must be a positive integer"))
			return
		}
		limit = min(n, maxMessageLimit)
	}
	msgs, err := s.service.Messages(r.Context(), id, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "chat")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req messageRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	profileID, err := optionalID(req.ModelProfileID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.service.PostMessage(r.Context(), conversation.TurnRequest{
		ChatID:         id,
		Content:        req.Content,
		ModelProfileID: profileID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": s.providers.Providers()})
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	provider := strings.TrimSpace(r.URL.Query().Get("provider"))
	models, ok := catalog.Models(provider)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"models": models})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider": provider, "models": models})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// optionalID treats a missing or empty id as absent.
func optionalID(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := checkID(*raw, "model profile")
	if err != nil {
		return nil, err
	}
	return &id, nil
}
