package dto

// LinkGitlabRequest 使用 personal access token 关联 GitLab 账号
type LinkGitlabRequest struct {
	Nickname string `json:"nickname" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Token    string `json:"token" binding:"required,max=255"`
}

type AccountLinkItem struct {
	Platform string `json:"platform"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

type GithubAuthURLResponse struct {
	URL string `json:"url"`
}
