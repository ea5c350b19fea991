package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/qs3c/coa_server/internal/model"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/pkg/crypto"
	"github.com/qs3c/coa_server/internal/pkg/oauth"
	"github.com/qs3c/coa_server/internal/repository"
)

var ErrInvalidOAuthState = errors.New("授权已过期，请重新关联")

// AccountLinkService 管理会员关联的第三方账号，token 加密后入库
type AccountLinkService struct {
	linkRepo    *repository.AccountLinkRepository
	memberRepo  *repository.MemberRepository
	cipher      *crypto.TokenCipher
	githubOAuth *oauth.GithubOAuth
	stateStore  *oauth.StateStore
}

func NewAccountLinkService(
	linkRepo *repository.AccountLinkRepository,
	memberRepo *repository.MemberRepository,
	cipher *crypto.TokenCipher,
	githubOAuth *oauth.GithubOAuth,
	stateStore *oauth.StateStore,
) *AccountLinkService {
	return &AccountLinkService{
		linkRepo:    linkRepo,
		memberRepo:  memberRepo,
		cipher:      cipher,
		githubOAuth: githubOAuth,
		stateStore:  stateStore,
	}
}

func (s *AccountLinkService) List(memberID int64) ([]dto.AccountLinkItem, error) {
	links, err := s.linkRepo.ListByMember(memberID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AccountLinkItem, 0, len(links))
	for _, l := range links {
		items = append(items, dto.AccountLinkItem{Platform: l.Platform, Nickname: l.Nickname, Email: l.Email})
	}
	return items, nil
}

// LinkGitlab 关联 GitLab 账号，已存在时覆盖
func (s *AccountLinkService) LinkGitlab(memberID int64, req *dto.LinkGitlabRequest) error {
	if err := s.ensureMember(memberID); err != nil {
		return err
	}
	return s.link(memberID, model.PlatformGitlab, req.Nickname, req.Email, req.Token)
}

// GithubAuthURL 生成 GitHub 授权地址，state 绑定当前会员
func (s *AccountLinkService) GithubAuthURL(ctx context.Context, memberID int64) (string, error) {
	if err := s.ensureMember(memberID); err != nil {
		return "", err
	}
	state, err := s.stateStore.GenerateState(ctx, memberID)
	if err != nil {
		return "", err
	}
	return s.githubOAuth.GetAuthURL(state), nil
}

// GithubCallback 处理授权回调，返回完成关联的会员 ID
func (s *AccountLinkService) GithubCallback(ctx context.Context, state, code string) (int64, error) {
	memberID, err := s.stateStore.ValidateState(ctx, state)
	if err != nil {
		log.Printf("Invalid github oauth state: %v", err)
		return 0, ErrInvalidOAuthState
	}

	token, err := s.githubOAuth.Exchange(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("failed to exchange code: %w", err)
	}

	user, err := s.githubOAuth.GetUser(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("failed to get github user: %w", err)
	}

	if err := s.link(memberID, model.PlatformGithub, user.Login, user.Email, token.AccessToken); err != nil {
		return 0, err
	}
	return memberID, nil
}

func (s *AccountLinkService) link(memberID int64, platform, nickname, email, token string) error {
	encrypted, err := s.cipher.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}
	return s.linkRepo.Upsert(&model.AccountLink{
		MemberID:       memberID,
		Platform:       platform,
		Nickname:       nickname,
		Email:          email,
		EncryptedToken: encrypted,
	})
}

func (s *AccountLinkService) ensureMember(memberID int64) error {
	if _, err := s.memberRepo.GetByID(memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	return nil
}
