package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/qs3c/coa_server/internal/model"
)

const (
	jobKeyPrefix  = "analysis:job:"
	lockKeyPrefix = "analysis:lock:"

	DefaultJobTTL = 86400 * time.Second

	// WATCH 冲突时的最大重试次数
	maxUpdateRetries = 5
)

var (
	ErrJobNotFound      = errors.New("分析任务不存在")
	ErrJobFinalized     = errors.New("分析任务已结束")
	ErrJobLocked        = errors.New("分析任务正在被处理")
	ErrInvalidJobStatus = errors.New("无效的任务状态码")
)

const (
	fieldMemberID   = "member_id"
	fieldUserName   = "user_name"
	fieldRepoPath   = "repo_path"
	fieldProjectID  = "project_id"
	fieldBaseURL    = "base_url"
	fieldIsOwn      = "is_own"
	fieldStatus     = "status"
	fieldPercentage = "percentage"
	fieldMemberCnt  = "member_cnt"
	fieldStartDate  = "start_date"
	fieldEndDate    = "end_date"
	fieldResult     = "result"
	fieldExpireSec  = "expire_sec"
)

// JobRepository 基于 Redis hash 的分析任务存储
// 过期与删除对调用方不可区分，统一返回 ErrJobNotFound
type JobRepository struct {
	rdb *redis.Client
}

func NewJobRepository(rdb *redis.Client) *JobRepository {
	return &JobRepository{rdb: rdb}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

// Create 写入新任务并设置过期时间，返回生成的任务 ID
func (r *JobRepository) Create(ctx context.Context, job *model.AnalysisJob, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	if !job.Status.Valid() {
		return "", ErrInvalidJobStatus
	}
	job.ID = uuid.NewString()
	job.ExpireSeconds = int64(ttl / time.Second)

	fields, err := encodeJob(job)
	if err != nil {
		return "", err
	}

	key := jobKey(job.ID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	return job.ID, nil
}

// Get 一次 HGETALL 读取完整快照
func (r *JobRepository) Get(ctx context.Context, id string) (*model.AnalysisJob, error) {
	values, err := r.rdb.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrJobNotFound
	}
	return decodeJob(id, values)
}

// Update 在 WATCH/MULTI 事务中合并外部更新
// 不会重建已过期的 key，百分比只增不减，已结束的任务拒绝更新
func (r *JobRepository) Update(ctx context.Context, id string, upd model.JobUpdate) (*model.AnalysisJob, error) {
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, ErrInvalidJobStatus
	}

	key := jobKey(id)
	var updated *model.AnalysisJob

	txf := func(tx *redis.Tx) error {
		values, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(values) == 0 {
			return ErrJobNotFound
		}
		job, err := decodeJob(id, values)
		if err != nil {
			return err
		}
		if job.Status.IsTerminal() {
			return ErrJobFinalized
		}

		changed := map[string]interface{}{}
		if upd.Status != nil {
			job.Status = *upd.Status
			changed[fieldStatus] = string(job.Status)
		}
		if upd.Percentage != nil {
			p := clampPercentage(*upd.Percentage)
			if p > job.Percentage {
				job.Percentage = p
				changed[fieldPercentage] = p
			}
		}
		if upd.Result != nil {
			if job.Result == nil {
				job.Result = &model.AnalysisResult{}
			}
			job.Result.Merge(upd.Result)
			data, err := json.Marshal(job.Result)
			if err != nil {
				return err
			}
			changed[fieldResult] = string(data)
		}

		updated = job
		if len(changed) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, changed)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("failed to update job %s: too many concurrent writers", id)
}

func (r *JobRepository) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, jobKey(id)).Err()
}

// Lock 获取单个任务的互斥锁，已被持有时返回 ErrJobLocked
func (r *JobRepository) Lock(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	key := lockKeyPrefix + id
	token := uuid.NewString()

	ok, err := r.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire job lock: %w", err)
	}
	if !ok {
		return nil, ErrJobLocked
	}

	release := func() {
		// 只释放自己持有的锁
		_ = r.rdb.Watch(context.Background(), func(tx *redis.Tx) error {
			val, err := tx.Get(context.Background(), key).Result()
			if err != nil || val != token {
				return nil
			}
			_, err = tx.TxPipelined(context.Background(), func(pipe redis.Pipeliner) error {
				pipe.Del(context.Background(), key)
				return nil
			})
			return err
		}, key)
	}
	return release, nil
}

func clampPercentage(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func encodeJob(job *model.AnalysisJob) (map[string]interface{}, error) {
	projectID := ""
	if job.ProjectID != nil {
		projectID = strconv.FormatInt(*job.ProjectID, 10)
	}
	isOwn := "0"
	if job.IsOwn {
		isOwn = "1"
	}
	result := ""
	if job.Result != nil {
		data, err := json.Marshal(job.Result)
		if err != nil {
			return nil, err
		}
		result = string(data)
	}

	return map[string]interface{}{
		fieldMemberID:   job.MemberID,
		fieldUserName:   job.UserName,
		fieldRepoPath:   job.RepoPath,
		fieldProjectID:  projectID,
		fieldBaseURL:    job.BaseURL,
		fieldIsOwn:      isOwn,
		fieldStatus:     string(job.Status),
		fieldPercentage: clampPercentage(job.Percentage),
		fieldMemberCnt:  job.MemberCnt,
		fieldStartDate:  job.StartDate,
		fieldEndDate:    job.EndDate,
		fieldResult:     result,
		fieldExpireSec:  job.ExpireSeconds,
	}, nil
}

func decodeJob(id string, v map[string]string) (*model.AnalysisJob, error) {
	job := &model.AnalysisJob{
		ID:        id,
		UserName:  v[fieldUserName],
		RepoPath:  v[fieldRepoPath],
		BaseURL:   v[fieldBaseURL],
		IsOwn:     v[fieldIsOwn] == "1",
		Status:    model.JobStatus(v[fieldStatus]),
		StartDate: v[fieldStartDate],
		EndDate:   v[fieldEndDate],
	}

	var err error
	if job.MemberID, err = parseInt64(v[fieldMemberID]); err != nil {
		return nil, fmt.Errorf("corrupted job %s: %w", id, err)
	}
	if s := v[fieldProjectID]; s != "" {
		pid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupted job %s: %w", id, err)
		}
		job.ProjectID = &pid
	}
	pct, err := parseInt64(v[fieldPercentage])
	if err != nil {
		return nil, fmt.Errorf("corrupted job %s: %w", id, err)
	}
	job.Percentage = int(pct)
	cnt, err := parseInt64(v[fieldMemberCnt])
	if err != nil {
		return nil, fmt.Errorf("corrupted job %s: %w", id, err)
	}
	job.MemberCnt = int(cnt)
	if job.ExpireSeconds, err = parseInt64(v[fieldExpireSec]); err != nil {
		return nil, fmt.Errorf("corrupted job %s: %w", id, err)
	}
	if s := v[fieldResult]; s != "" {
		var result model.AnalysisResult
		if err := json.Unmarshal([]byte(s), &result); err != nil {
			return nil, fmt.Errorf("corrupted job %s: %w", id, err)
		}
		job.Result = &result
	}
	return job, nil
}

func parseInt64(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
