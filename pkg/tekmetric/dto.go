package tekmetric

// ==========================================
// DTO: 用于接收 Tekmetric API 返回的原始 JSON 数据
// 金额字段全部以最小货币单位（美分）返回
// ==========================================

// 工单状态码
// 只同步 WorkInProgress 的工单进入在修账龄表；
// 工单状态变为 Posted/Closed 后，下一次全量刷新会自动将其剔除
const (
	StatusEstimate       = 1 // 报价中
	StatusWorkInProgress = 2 // 在修
	StatusPosted         = 3 // 已过账
	StatusAccountsRecv   = 4 // 应收
	StatusClosed         = 5 // 已关闭
)

// TokenResp OAuth 客户端凭证响应
// POST /api/v1/oauth/token
type TokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Shop 门店
// GET /api/v1/shops（返回裸数组，不带 content 包装）
type Shop struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// NamedRef 带名称的引用对象（状态/标签）
type NamedRef struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// RepairOrder 维修工单
// GET /api/v1/repair-orders
type RepairOrder struct {
	ID                  int64     `json:"id"`
	RepairOrderNumber   int64     `json:"repairOrderNumber"`
	ShopID              int64     `json:"shopId"`
	RepairOrderStatusID int64     `json:"repairOrderStatusId"`
	CreatedDate         string    `json:"createdDate"`
	PostedDate          string    `json:"postedDate"`
	CustomerID          int64     `json:"customerId"`
	VehicleID           int64     `json:"vehicleId"`
	TechnicianID        int64     `json:"technicianId"`
	ServiceWriterID     int64     `json:"serviceWriterId"`
	TotalSales          int64     `json:"totalSales"`
	LaborSales          int64     `json:"laborSales"`
	PartsSales          int64     `json:"partsSales"`
	SubletSales         int64     `json:"subletSales"`
	RepairOrderStatus   *NamedRef `json:"repairOrderStatus"`
	RepairOrderLabel    *NamedRef `json:"repairOrderLabel"`
	CustomLabel         *NamedRef `json:"repairOrderCustomLabel"`
	Jobs                []Job     `json:"jobs"`
}

// Job 工单内的作业项
type Job struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	LaborHours float64 `json:"laborHours"`
	Parts      []Part  `json:"parts"`
}

// Part 作业项中的配件
type Part struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Customer 客户
// GET /api/v1/customers/{id}
type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Vehicle 车辆
// GET /api/v1/vehicles/{id}
type Vehicle struct {
	ID    int64  `json:"id"`
	Year  int    `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

// Payment 工单收款记录
// GET /api/v1/repair-orders/{id}/payments
type Payment struct {
	ID         int64  `json:"id"`
	AmountPaid int64  `json:"amountPaid"`
	PaymentAt  string `json:"paymentDate"`
}

// PagedRepairOrders 分页包装: {content: [...], totalPages, totalElements}
type PagedRepairOrders struct {
	Content       []RepairOrder `json:"content"`
	TotalPages    int           `json:"totalPages"`
	TotalElements int64         `json:"totalElements"`
}
