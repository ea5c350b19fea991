package service

import (
	"context"
	"errors"
	"log"

	"github.com/qs3c/coa_server/internal/model"
	"github.com/qs3c/coa_server/internal/model/dto"
	"github.com/qs3c/coa_server/internal/pkg/pubsub"
	"github.com/qs3c/coa_server/internal/repository"
)

var (
	ErrAnalysisFinalized = errors.New("分析任务已结束")
	ErrInvalidStatus     = errors.New("无效的任务状态码")
)

// ProgressService 接收 AI 服务回写的进度并推送给前端
type ProgressService struct {
	jobRepo   *repository.JobRepository
	publisher *pubsub.Publisher
}

func NewProgressService(jobRepo *repository.JobRepository, publisher *pubsub.Publisher) *ProgressService {
	return &ProgressService{jobRepo: jobRepo, publisher: publisher}
}

func (s *ProgressService) Update(ctx context.Context, jobID string, req *dto.ProgressUpdateRequest) (*dto.ProgressUpdateResponse, error) {
	status := model.JobStatus(req.Status)
	job, err := s.jobRepo.Update(ctx, jobID, model.JobUpdate{
		Status:     &status,
		Percentage: req.Percentage,
		Result:     req.Result,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrJobNotFound):
			return nil, ErrAnalysisNotExist
		case errors.Is(err, repository.ErrJobFinalized):
			return nil, ErrAnalysisFinalized
		case errors.Is(err, repository.ErrInvalidJobStatus):
			return nil, ErrInvalidStatus
		}
		return nil, err
	}

	// 推送失败不影响回写结果
	if s.publisher != nil {
		msg := &pubsub.ProgressMessage{
			MemberID:   job.MemberID,
			AnalysisID: job.ID,
			Status:     string(job.Status),
			Percentage: job.Percentage,
		}
		if err := s.publisher.PublishProgress(ctx, msg); err != nil {
			log.Printf("Failed to publish progress for analysis %s: %v", job.ID, err)
		}
	}

	return &dto.ProgressUpdateResponse{
		AnalysisID: job.ID,
		Status:     string(job.Status),
		Percentage: job.Percentage,
	}, nil
}
