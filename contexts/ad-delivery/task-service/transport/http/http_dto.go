package httptransport

import "encoding/json"

type CreateTaskRequest struct {
	AccountID       string          `json:"account_id"`
	TargetAccountID string          `json:"target_account_id,omitempty"`
	ItemID          string          `json:"item_id"`
	TaskKind        int             `json:"task_kind,omitempty"`
	TargetingMode   int             `json:"targeting_mode,omitempty"`
	WantType        string          `json:"want_type,omitempty"`
	Objective       string          `json:"objective,omitempty"`
	Strategy        string          `json:"strategy,omitempty"`
	DurationHours   int             `json:"duration_hours,omitempty"`
	Budget          string          `json:"budget"`
	Count           int             `json:"count,omitempty"`
	ScheduledTime   string          `json:"scheduled_time,omitempty"`
	TargetConfig    json.RawMessage `json:"target_config,omitempty"`
	InvestPassword  string          `json:"invest_password"`
}

type CreateTasksRequest struct {
	Requests []CreateTaskRequest `json:"requests"`
}

type TaskView struct {
	TaskID          string `json:"task_id"`
	UserID          string `json:"user_id"`
	AccountID       string `json:"account_id"`
	TargetAccountID string `json:"target_account_id,omitempty"`
	ItemID          string `json:"item_id"`

	TaskKind      int    `json:"task_kind"`
	TargetingMode int    `json:"targeting_mode"`
	WantType      string `json:"want_type"`
	Objective     string `json:"objective"`
	Strategy      string `json:"strategy"`
	DurationHours int    `json:"duration_hours"`

	Budget           string `json:"budget"`
	ActualCost       string `json:"actual_cost"`
	ExpectedExposure int64  `json:"expected_exposure"`
	ActualExposure   int64  `json:"actual_exposure"`
	PlayCount        int64  `json:"play_count"`
	LikeCount        int64  `json:"like_count"`
	CommentCount     int64  `json:"comment_count"`
	ShareCount       int64  `json:"share_count"`
	FollowCount      int64  `json:"follow_count"`
	ClickCount       int64  `json:"click_count"`

	Source        string `json:"source"`
	Status        string `json:"status"`
	OwnerNickname string `json:"owner_nickname,omitempty"`
	OwnerAvatar   string `json:"owner_avatar,omitempty"`
	VideoTitle    string `json:"video_title,omitempty"`
	VideoCoverURL string `json:"video_cover_url,omitempty"`

	OrderID    string `json:"order_id,omitempty"`
	RetryCount int    `json:"retry_count"`
	MaxRetry   int    `json:"max_retry"`
	ErrorMsg   string `json:"error_msg,omitempty"`

	ScheduledTime string `json:"scheduled_time"`
	ExecutedTime  string `json:"executed_time,omitempty"`
	CompletedTime string `json:"completed_time,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type CreateTasksResponse struct {
	Tasks []TaskView `json:"tasks"`
}

type ListTasksResponse struct {
	Tasks      []TaskView `json:"tasks"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

type SyncOrdersResponse struct {
	ImportedCount int `json:"imported_count"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
