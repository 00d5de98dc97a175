package storage

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ModelProfile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Provider     string    `json:"provider"`
	BaseModel    string    `json:"base_model"`
	SystemPrompt string    `json:"system_prompt"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Chat struct {
	ID             string    `json:"id"`
	Title          *string   `json:"title"`
	ModelProfileID *string   `json:"model_profile_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfilePatch carries the optional fields of a profile update. Nil fields are left
// untouched.
type ProfilePatch struct {
	Name         *string
	Provider     *string
	BaseModel    *string
	SystemPrompt *string
}

func (p ProfilePatch) columns() map[string]any {
	out := map[string]any{}
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Provider != nil {
		out["provider"] = *p.Provider
	}
	if p.BaseModel != nil {
		out["base_model"] = *p.BaseModel
	}
	if p.SystemPrompt != nil {
		out["system_prompt"] = *p.SystemPrompt
	}
	return out
}

func (p ProfilePatch) Empty() bool { return len(p.columns()) == 0 }

type ChatPatch struct {
	Title          *string
	ModelProfileID *string
}

func (p ChatPatch) columns() map[string]any {
	out := map[string]any{}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.ModelProfileID != nil {
		out["model_profile_id"] = *p.ModelProfileID
	}
	return out
}

func (p ChatPatch) Empty() bool { return len(p.columns()) == 0 }
