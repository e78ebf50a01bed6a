package models

// ErrorResponse is the uniform error body for the HTTP surface.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AnalyzeRequest asks for a fresh profile analysis.
type AnalyzeRequest struct {
	Username string `json:"username" validate:"required,min=1,max=39"`
	Tone     string `json:"tone,omitempty" validate:"omitempty,oneof=brutal supportive neutral"`
	Nickname string `json:"nickname,omitempty" validate:"omitempty,max=50"`
	Mode     string `json:"mode,omitempty" validate:"omitempty,oneof=single two-phase"`
	Model    string `json:"model,omitempty" validate:"omitempty,max=100"`
}

// AnalyzeResponse wraps an analysis result with the gating context it ran
// under.
type AnalyzeResponse struct {
	Result        *AnalysisResult `json:"result"`
	Model         string          `json:"model"`
	UsingFallback bool            `json:"usingFallback"`
	Remaining     *int            `json:"remaining,omitempty"`
}

// ProjectsRequest asks for recommended portfolio projects.
type ProjectsRequest struct {
	Username string `json:"username" validate:"required,min=1,max=39"`
	Model    string `json:"model,omitempty" validate:"omitempty,max=100"`
}

// ProjectsResponse carries the recommended project set.
type ProjectsResponse struct {
	Projects      []Project `json:"projects"`
	Model         string    `json:"model"`
	UsingFallback bool      `json:"usingFallback"`
	Remaining     *int      `json:"remaining,omitempty"`
}

// ChatMessageRequest is one user turn in the follow-up conversation.
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// CheckoutRequest starts a plan upgrade.
type CheckoutRequest struct {
	Tier string `json:"tier" validate:"required,oneof=student pro ultimate"`
}

// GitHubAuthRequest exchanges a GitHub OAuth code for a session token.
type GitHubAuthRequest struct {
	Code string `json:"code" validate:"required"`
}

// AuthResponse carries the minted session token.
type AuthResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Plan     string `json:"plan"`
}
