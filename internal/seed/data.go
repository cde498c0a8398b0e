package seed

import (
	"github.com/shopspring/decimal"

	"github.com/safar/go-bookstore/internal/models"
)

type role struct {
	ID          int64
	Name        string
	Description string
	Permissions map[string]bool
}

var roles = []role{
	{1, "admin", "Quản trị viên hệ thống", map[string]bool{
		"all": true, "manage_users": true, "manage_products": true,
		"manage_orders": true, "manage_settings": true, "view_reports": true,
	}},
	{2, "staff", "Nhân viên", map[string]bool{
		"manage_products": true, "manage_orders": true, "view_reports": true, "manage_reviews": true,
	}},
	{3, "customer", "Khách hàng", map[string]bool{
		"place_orders": true, "write_reviews": true, "manage_profile": true, "view_orders": true,
	}},
}

type paymentMethod struct {
	Name        string
	Description string
}

var paymentMethods = []paymentMethod{
	{"Cash on Delivery", "Thanh toán khi nhận hàng"},
	{"Bank Transfer", "Chuyển khoản ngân hàng"},
	{"Credit Card", "Thẻ tín dụng"},
	{"E-Wallet", "Ví điện tử (MoMo, ZaloPay)"},
	{"QR Code", "Quét mã QR"},
}

type category struct {
	Name        string
	Slug        string
	Description string
}

var categories = []category{
	{"Tiểu thuyết", "tieu-thuyet", "Các tác phẩm tiểu thuyết văn học"},
	{"Khoa học", "khoa-hoc", "Sách khoa học và công nghệ"},
	{"Lịch sử", "lich-su", "Sách về lịch sử và văn hóa"},
	{"Kinh tế", "kinh-te", "Sách về kinh tế và kinh doanh"},
	{"Nghệ thuật", "nghe-thuat", "Sách về nghệ thuật và thiết kế"},
	{"Giáo dục", "giao-duc", "Sách giáo dục và học tập"},
	{"Sức khỏe", "suc-khoe", "Sách về sức khỏe và y tế"},
	{"Du lịch", "du-lich", "Sách về du lịch và khám phá"},
	{"Thiếu nhi", "thieu-nhi", "Sách dành cho trẻ em"},
	{"Tâm lý học", "tam-ly-hoc", "Sách về tâm lý và phát triển bản thân"},
	{"Công nghệ", "cong-nghe", "Sách về công nghệ thông tin"},
	{"Ngoại ngữ", "ngoai-ngu", "Sách học ngoại ngữ"},
}

type publisher struct {
	Name  string
	Email string
	Phone string
}

var publishers = []publisher{
	{"Nhà xuất bản Trẻ", "info@nxbtre.com.vn", "02838229339"},
	{"Kim Đồng", "info@nxbkimdong.com.vn", "02438221351"},
	{"Nhã Nam", "info@nhanam.vn", "02437712718"},
	{"Alpha Books", "info@alphabooks.vn", "02437712718"},
	{"First News", "info@firstnews.com.vn", "02838229339"},
	{"Thái Hà Books", "info@thaihabooks.com", "02437712718"},
}

type supplier struct {
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
}

var suppliers = []supplier{
	{"Công ty TNHH Phát hành Sách ABC", "Nguyễn Văn A", "contact@abcbooks.com", "0123456789", "123 Đường ABC, Quận 1, TP.HCM"},
	{"Nhà phân phối Sách XYZ", "Trần Thị B", "info@xyzbooks.com", "0987654321", "456 Đường XYZ, Quận 3, TP.HCM"},
	{"Đại lý Sách DEF", "Lê Văn C", "sales@defbooks.com", "0369258147", "789 Đường DEF, Quận 5, TP.HCM"},
}

var authors = []string{
	"Nguyễn Nhật Ánh",
	"Paulo Coelho",
	"Dale Carnegie",
	"Stephen Covey",
	"Yuval Noah Harari",
}

type account struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	RoleID    int64
}

const (
	adminUsername    = "admin"
	staffUsername    = "staff1"
	customerUsername = "customer1"
)

var accounts = []account{
	{adminUsername, "admin@bookstore.com", "Admin", "System", 1},
	{customerUsername, "customer@example.com", "Nguyễn", "Văn A", 3},
	{staffUsername, "staff@bookstore.com", "Trần", "Thị B", 2},
}

type book struct {
	Title         string
	ISBN          string
	Description   string
	Summary       string
	Year          int
	Pages         int
	Length        string
	Width         string
	Thickness     string
	Weight        int
	CoverType     string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	Discount      decimal.Decimal
	CostPrice     decimal.Decimal
	Stock         int
	Category      string
	Publisher     string
	Supplier      string
	Author        string
	Featured      bool
	Bestseller    bool
}

var books = []book{
	{
		Title:         "Tôi Thấy Hoa Vàng Trên Cỏ Xanh",
		ISBN:          "9786041000001",
		Description:   "Câu chuyện về tuổi thơ của cậu bé Thiều và những kỷ niệm đẹp đẽ.",
		Summary:       "Một tác phẩm văn học thiếu nhi nổi tiếng của Nguyễn Nhật Ánh.",
		Year:          2010,
		Pages:         300,
		Length:        "20",
		Width:         "15",
		Thickness:     "2",
		Weight:        400,
		CoverType:     models.CoverPaperback,
		Price:         decimal.NewFromInt(85000),
		OriginalPrice: decimal.NewFromInt(100000),
		Discount:      decimal.NewFromInt(15),
		CostPrice:     decimal.NewFromInt(50000),
		Stock:         50,
		Category:      "tieu-thuyet",
		Publisher:     "Nhà xuất bản Trẻ",
		Supplier:      "Công ty TNHH Phát hành Sách ABC",
		Author:        "Nguyễn Nhật Ánh",
		Featured:      true,
	},
	{
		Title:         "Nhà Giả Kim",
		ISBN:          "9786041000002",
		Description:   "Câu chuyện về Santiago, một cậu bé chăn cừu đi tìm kho báu của mình.",
		Summary:       "Tác phẩm nổi tiếng của Paulo Coelho về hành trình tìm kiếm ý nghĩa cuộc sống.",
		Year:          1988,
		Pages:         200,
		Length:        "19",
		Width:         "13",
		Thickness:     "2",
		Weight:        300,
		CoverType:     models.CoverPaperback,
		Price:         decimal.NewFromInt(120000),
		OriginalPrice: decimal.NewFromInt(150000),
		Discount:      decimal.NewFromInt(20),
		CostPrice:     decimal.NewFromInt(80000),
		Stock:         30,
		Category:      "tieu-thuyet",
		Publisher:     "Nhà xuất bản Trẻ",
		Supplier:      "Công ty TNHH Phát hành Sách ABC",
		Author:        "Paulo Coelho",
		Bestseller:    true,
	},
	{
		Title:         "Đắc Nhân Tâm",
		ISBN:          "9786041000003",
		Description:   "Cuốn sách kinh điển về nghệ thuật giao tiếp và ứng xử.",
		Summary:       "Tác phẩm nổi tiếng của Dale Carnegie về cách thu phục lòng người.",
		Year:          1936,
		Pages:         400,
		Length:        "21",
		Width:         "15",
		Thickness:     "3",
		Weight:        500,
		CoverType:     models.CoverHardcover,
		Price:         decimal.NewFromInt(150000),
		OriginalPrice: decimal.NewFromInt(180000),
		Discount:      decimal.RequireFromString("16.67"),
		CostPrice:     decimal.NewFromInt(100000),
		Stock:         25,
		Category:      "tam-ly-hoc",
		Publisher:     "Alpha Books",
		Supplier:      "Công ty TNHH Phát hành Sách ABC",
		Author:        "Dale Carnegie",
		Featured:      true,
	},
}

type voucher struct {
	Code        string
	Name        string
	Description string
	Type        string
	Value       decimal.Decimal
	MinOrder    decimal.Decimal
	MaxDiscount decimal.NullDecimal
	UsageLimit  int
	UserLimit   int
	Days        int
}

var vouchers = []voucher{
	{
		Code:        "WELCOME10",
		Name:        "Chào mừng khách hàng mới",
		Description: "Giảm 10% cho đơn hàng đầu tiên",
		Type:        models.DiscountPercentage,
		Value:       decimal.NewFromInt(10),
		MinOrder:    decimal.NewFromInt(100000),
		MaxDiscount: decimal.NewNullDecimal(decimal.NewFromInt(50000)),
		UsageLimit:  1000,
		UserLimit:   1,
		Days:        30,
	},
	{
		Code:        "FREESHIP",
		Name:        "Miễn phí ship",
		Description: "Miễn phí ship cho đơn hàng từ 500k",
		Type:        models.DiscountFreeShipping,
		Value:       decimal.Zero,
		MinOrder:    decimal.NewFromInt(500000),
		UsageLimit:  500,
		UserLimit:   2,
		Days:        15,
	},
	{
		Code:        "SAVE50K",
		Name:        "Tiết kiệm 50k",
		Description: "Giảm 50k cho đơn hàng từ 300k",
		Type:        models.DiscountFixedAmount,
		Value:       decimal.NewFromInt(50000),
		MinOrder:    decimal.NewFromInt(300000),
		UsageLimit:  200,
		UserLimit:   1,
		Days:        7,
	},
}

type setting struct {
	Key         string
	Value       string
	Type        string
	Description string
	Public      bool
}

var settings = []setting{
	{"site_name", "Nhà Sách Online", models.SettingString, "Tên cửa hàng hiển thị", true},
	{"currency", "VND", models.SettingString, "Đơn vị tiền tệ", true},
	{"shipping_fee", "30000", models.SettingNumber, "Phí vận chuyển mặc định", true},
	{"free_shipping_threshold", "500000", models.SettingNumber, "Giá trị đơn hàng được miễn phí vận chuyển", true},
	{"tax_rate", "0", models.SettingNumber, "Thuế suất áp dụng cho đơn hàng (%)", false},
	{"guest_cart_ttl_days", "7", models.SettingNumber, "Số ngày giữ giỏ hàng của khách", false},
	{"maintenance_mode", "false", models.SettingBoolean, "Tạm dừng nhận đơn hàng", false},
}
