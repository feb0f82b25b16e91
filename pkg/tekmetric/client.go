package tekmetric

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL Tekmetric 生产环境地址
const DefaultBaseURL = "https://shop.tekmetric.com/api/v1"

// DefaultPageDelay 默认翻页间隔，避免触发上游 QPS 限制
const DefaultPageDelay = 500 * time.Millisecond

// Client Tekmetric API 客户端
// 所有出站请求统一走这里，429 由 resty 的重试条件自动退避，
// 不再单纯依赖写死的 sleep 常量
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *resty.Client

	// 翻页间隔，测试中可调为 0
	pageDelay time.Duration
}

// NewClient 创建 Tekmetric 客户端
func NewClient(baseURL, clientID, clientSecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := resty.New().
		SetTimeout(20 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(8 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// 只对限流响应重试，其他错误交由调用方决定
			return r != nil && r.StatusCode() == http.StatusTooManyRequests
		})

	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         httpClient,
		pageDelay:    DefaultPageDelay,
	}
}

// SetPageDelay 设置翻页间隔
func (c *Client) SetPageDelay(d time.Duration) {
	c.pageDelay = d
}

// ==================== 鉴权 ====================

// Authenticate 客户端凭证换取访问令牌
// POST {base}/oauth/token, Basic 认证 + grant_type=client_credentials
func (c *Client) Authenticate(ctx context.Context) (*TokenResp, error) {
	var token TokenResp

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&token).
		Post(c.baseURL + "/oauth/token")

	if err != nil {
		return nil, fmt.Errorf("tekmetric 鉴权请求失败: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &AuthenticationError{Status: resp.StatusCode(), Body: resp.String()}
	}

	return &token, nil
}

// ==================== 资源请求 ====================

// FetchPage 发起一次带鉴权的 GET 请求，结果解析到 out
// params 中的值会全部 URL 编码；非 2xx 返回 *RequestError
func (c *Client) FetchPage(ctx context.Context, path, token string, params url.Values, out interface{}) error {
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetResult(out)

	if params != nil {
		req.SetQueryParamsFromValues(params)
	}

	resp, err := req.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	if !resp.IsSuccess() {
		return &RequestError{Status: resp.StatusCode(), Endpoint: path}
	}

	return nil
}

// FetchShops 获取全部门店（裸数组，不分页）
func (c *Client) FetchShops(ctx context.Context, token string) ([]Shop, error) {
	var shops []Shop
	if err := c.FetchPage(ctx, "/shops", token, nil, &shops); err != nil {
		return nil, err
	}
	return shops, nil
}

// FetchRepairOrderPage 获取一页维修工单
func (c *Client) FetchRepairOrderPage(ctx context.Context, token string, base url.Values, page, pageSize int) (*PagedRepairOrders, error) {
	params := url.Values{}
	for k, vs := range base {
		params[k] = vs
	}
	params.Set("size", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))

	var paged PagedRepairOrders
	if err := c.FetchPage(ctx, "/repair-orders", token, params, &paged); err != nil {
		return nil, err
	}
	return &paged, nil
}

// FetchAllRepairOrders 翻页拉取全部维修工单
// page 从 0 递增；当某页数量小于 pageSize（或 content 为空）时终止；
// 某一页失败时停止翻页，返回已累积的数据和错误，由调用方决定是否降级
func (c *Client) FetchAllRepairOrders(ctx context.Context, token string, base url.Values, pageSize int) ([]RepairOrder, error) {
	var all []RepairOrder

	for page := 0; ; page++ {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		paged, err := c.FetchRepairOrderPage(ctx, token, base, page, pageSize)
		if err != nil {
			return all, err
		}

		all = append(all, paged.Content...)
		if len(paged.Content) < pageSize {
			break
		}

		// 翻页间隔，配合 429 重试共同保护上游配额
		if c.pageDelay > 0 {
			time.Sleep(c.pageDelay)
		}
	}

	return all, nil
}

// FetchCustomer 获取客户信息
func (c *Client) FetchCustomer(ctx context.Context, token string, customerID int64) (*Customer, error) {
	var customer Customer
	path := fmt.Sprintf("/customers/%d", customerID)
	if err := c.FetchPage(ctx, path, token, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// FetchVehicle 获取车辆信息
func (c *Client) FetchVehicle(ctx context.Context, token string, vehicleID int64) (*Vehicle, error) {
	var vehicle Vehicle
	path := fmt.Sprintf("/vehicles/%d", vehicleID)
	if err := c.FetchPage(ctx, path, token, nil, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FetchPayments 获取工单收款记录
func (c *Client) FetchPayments(ctx context.Context, token string, repairOrderID int64) ([]Payment, error) {
	var payments []Payment
	path := fmt.Sprintf("/repair-orders/%d/payments", repairOrderID)
	if err := c.FetchPage(ctx, path, token, nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
