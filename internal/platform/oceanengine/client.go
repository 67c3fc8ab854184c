package oceanengine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	accounterrors "adboost/contexts/ad-delivery/account-service/domain/errors"
	accountports "adboost/contexts/ad-delivery/account-service/ports"
	taskports "adboost/contexts/ad-delivery/task-service/ports"

	"github.com/go-resty/resty/v2"
)

const timeLayout = "2006-01-02 15:04:05"

// APIError is a non-zero platform response code. The message is kept verbatim
// for operator diagnosis and for expiry detection.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform error %d: %s", e.Code, e.Message)
}

type Config struct {
	BaseURL   string
	AppID     string
	AppSecret string
	Timeout   time.Duration
}

// Client talks to the ad platform's boost-order and oauth endpoints. It
// implements the platform ports of both delivery services. Monetary amounts
// stay in minor units on this boundary.
type Client struct {
	http      *resty.Client
	appID     string
	appSecret string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
	}
}

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (e envelope[T]) err() error {
	if e.Code == 0 {
		return nil
	}
	return &APIError{Code: e.Code, Message: e.Message}
}

type createOrderData struct {
	OrderID       string `json:"order_id"`
	ExpectShowCnt int64  `json:"expect_show_cnt"`
}

func (c *Client) CreateOrder(ctx context.Context, credential string, in taskports.CreateOrderInput) (taskports.CreateOrderResult, error) {
	var out envelope[createOrderData]
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Access-Token", credential).
		SetBody(map[string]any{
			"item_id":        in.ItemID,
			"budget":         in.BudgetMinor,
			"boost_duration": in.DurationHours,
			"targeting_mode": int(in.TargetingMode),
			"target_config":  in.TargetConfig,
		}).
		SetResult(&out).
		Post("/douplus/order/create/")
	if err != nil {
		return taskports.CreateOrderResult{}, err
	}
	if resp.IsError() {
		return taskports.CreateOrderResult{}, &APIError{Code: resp.StatusCode(), Message: resp.Status()}
	}
	if err := out.err(); err != nil {
		return taskports.CreateOrderResult{}, err
	}
	return taskports.CreateOrderResult{
		OrderID:          out.Data.OrderID,
		ExpectedExposure: out.Data.ExpectShowCnt,
	}, nil
}

type orderStatusData struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Cost    int64  `json:"cost"`
	ShowCnt int64  `json:"show_cnt"`
}

func (c *Client) QueryOrderStatus(ctx context.Context, credential, orderID string) (taskports.OrderStatusResult, error) {
	var out envelope[orderStatusData]
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Access-Token", credential).
		SetQueryParam("order_id", orderID).
		SetResult(&out).
		Get("/douplus/order/status/")
	if err != nil {
		return taskports.OrderStatusResult{}, err
	}
	if resp.IsError() {
		return taskports.OrderStatusResult{}, &APIError{Code: resp.StatusCode(), Message: resp.Status()}
	}
	if err := out.err(); err != nil {
		return taskports.OrderStatusResult{}, err
	}
	return taskports.OrderStatusResult{
		OrderID:         out.Data.OrderID,
		Status:          out.Data.Status,
		ActualCostMinor: out.Data.Cost,
		ActualExposure:  out.Data.ShowCnt,
	}, nil
}

type terminateData struct {
	Success bool `json:"success"`
}

func (c *Client) CancelOrder(ctx context.Context, credential, orderID string) (bool, error) {
	var out envelope[terminateData]
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Access-Token", credential).
		SetBody(map[string]any{"order_id": orderID}).
		SetResult(&out).
		Post("/douplus/order/terminate/")
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, &APIError{Code: resp.StatusCode(), Message: resp.Status()}
	}
	if err := out.err(); err != nil {
		return false, err
	}
	return out.Data.Success, nil
}

type remoteOrderData struct {
	OrderID       string `json:"order_id"`
	ItemID        string `json:"item_id"`
	Status        string `json:"status"`
	Budget        int64  `json:"budget"`
	Cost          int64  `json:"cost"`
	BoostDuration int    `json:"boost_duration"`
	PlayCnt       int64  `json:"play_cnt"`
	LikeCnt       int64  `json:"like_cnt"`
	CommentCnt    int64  `json:"comment_cnt"`
	ShareCnt      int64  `json:"share_cnt"`
	FollowCnt     int64  `json:"follow_cnt"`
	ClickCnt      int64  `json:"click_cnt"`
	Nickname      string `json:"nick_name"`
	Avatar        string `json:"avatar"`
	VideoTitle    string `json:"item_title"`
	VideoCover    string `json:"item_cover"`
	CreateTime    string `json:"create_time"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

type orderListData struct {
	List       []remoteOrderData `json:"list"`
	TotalCount int64             `json:"total_count"`
}

func (c *Client) ListOrders(ctx context.Context, credential, actorID string, page, pageSize int) (taskports.OrderPage, error) {
	var out envelope[orderListData]
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Access-Token", credential).
		SetQueryParams(map[string]string{
			"sec_uid":   actorID,
			"page":      strconv.Itoa(page),
			"page_size": strconv.Itoa(pageSize),
		}).
		SetResult(&out).
		Get("/douplus/order/list/")
	if err != nil {
		return taskports.OrderPage{}, err
	}
	if resp.IsError() {
		return taskports.OrderPage{}, &APIError{Code: resp.StatusCode(), Message: resp.Status()}
	}
	if err := out.err(); err != nil {
		return taskports.OrderPage{}, err
	}

	items := make([]taskports.RemoteOrder, 0, len(out.Data.List))
	for _, row := range out.Data.List {
		items = append(items, taskports.RemoteOrder{
			OrderID:       row.OrderID,
			ItemID:        row.ItemID,
			Status:        row.Status,
			BudgetMinor:   row.Budget,
			CostMinor:     row.Cost,
			DurationHours: row.BoostDuration,
			PlayCount:     row.PlayCnt,
			LikeCount:     row.LikeCnt,
			CommentCount:  row.CommentCnt,
			ShareCount:    row.ShareCnt,
			FollowCount:   row.FollowCnt,
			ClickCount:    row.ClickCnt,
			OwnerNickname: row.Nickname,
			OwnerAvatar:   row.Avatar,
			VideoTitle:    row.VideoTitle,
			VideoCoverURL: row.VideoCover,
			CreateTime:    row.CreateTime,
			StartTime:     row.StartTime,
			EndTime:       row.EndTime,
		})
	}
	return taskports.OrderPage{Items: items, TotalCount: out.Data.TotalCount}, nil
}

type orderReportData struct {
	List []struct {
		OrderID    string `json:"order_id"`
		Cost       int64  `json:"cost"`
		PlayCnt    int64  `json:"play_cnt"`
		LikeCnt    int64  `json:"like_cnt"`
		CommentCnt int64  `json:"comment_cnt"`
		ShareCnt   int64  `json:"share_cnt"`
		FollowCnt  int64  `json:"follow_cnt"`
		ClickCnt   int64  `json:"click_cnt"`
	} `json:"list"`
}

func (c *Client) GetOrderReport(ctx context.Context, credential, actorID string, begin, end time.Time) (map[string]taskports.OrderReport, error) {
	var out envelope[orderReportData]
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Access-Token", credential).
		SetQueryParams(map[string]string{
			"sec_uid":    actorID,
			"begin_time": begin.Format(timeLayout),
			"end_time":   end.Format(timeLayout),
		}).
		SetResult(&out).
		Get("/douplus/order/report/")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &APIError{Code: resp.StatusCode(), Message: resp.Status()}
	}
	if err := out.err(); err != nil {
		return nil, err
	}

	reports := make(map[string]taskports.OrderReport, len(out.Data.List))
	for _, row := range out.Data.List {
		reports[row.OrderID] = taskports.OrderReport{
			CostMinor:    row.Cost,
			PlayCount:    row.PlayCnt,
			LikeCount:    row.LikeCnt,
			CommentCount: row.CommentCnt,
			ShareCount:   row.ShareCnt,
			FollowCount:  row.FollowCnt,
			ClickCount:   row.ClickCnt,
		}
	}
	return reports, nil
}

type refreshTokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (c *Client) RefreshCredential(ctx context.Context, refreshToken string) (accountports.TokenRefresh, error) {
	var out envelope[refreshTokenData]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"app_id":        c.appID,
			"secret":        c.appSecret,
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
		}).
		SetResult(&out).
		Post("/oauth/refresh_token/")
	if err != nil {
		return accountports.TokenRefresh{}, err
	}
	if resp.IsError() {
		return accountports.TokenRefresh{}, &APIError{Code: resp.StatusCode(), Message: resp.Status()}
	}
	if err := out.err(); err != nil {
		if isRefreshExpired(err) {
			return accountports.TokenRefresh{}, fmt.Errorf("%w: %s", accounterrors.ErrRefreshTokenExpired, err)
		}
		return accountports.TokenRefresh{}, err
	}
	return accountports.TokenRefresh{
		AccessToken:  out.Data.AccessToken,
		RefreshToken: out.Data.RefreshToken,
		ExpiresIn:    out.Data.ExpiresIn,
	}, nil
}

func isRefreshExpired(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "expired")
}
