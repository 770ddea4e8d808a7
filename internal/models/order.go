package models

import (
	"time"

	"github.com/google/uuid"
)

// VoucherStatus is an enum for the redemption state of a voucher
type VoucherStatus string

const (
	// VoucherStatusActive represents a voucher that can still be redeemed
	VoucherStatusActive VoucherStatus = "active"
	// VoucherStatusRedeemed represents a voucher that has been used. Terminal.
	VoucherStatusRedeemed VoucherStatus = "redeemed"
	// VoucherStatusExpired represents a voucher past its expiration date. Terminal.
	VoucherStatusExpired VoucherStatus = "expired"
)

// VoucherTemplate names a PDF layout for the rendered voucher
type VoucherTemplate string

const (
	TemplateBirthday   VoucherTemplate = "birthday"
	TemplateChristmas  VoucherTemplate = "christmas"
	TemplateValentines VoucherTemplate = "valentines"
	TemplateGeneral    VoucherTemplate = "general"
)

// AllowedTemplates lists every template name that can be rendered
var AllowedTemplates = []VoucherTemplate{
	TemplateBirthday,
	TemplateChristmas,
	TemplateValentines,
	TemplateGeneral,
}

// IsAllowedTemplate reports whether the given template name can be rendered
func IsAllowedTemplate(t VoucherTemplate) bool {
	for _, allowed := range AllowedTemplates {
		if t == allowed {
			return true
		}
	}
	return false
}

// PaymentProvider is an enum for supported payment providers
type PaymentProvider string

const (
	ProviderMercadoPago PaymentProvider = "mercadopago"
	ProviderPaypal      PaymentProvider = "paypal"
	ProviderStripe      PaymentProvider = "stripe"
)

// IsKnownProvider reports whether the provider is one we accept payments from
func IsKnownProvider(p PaymentProvider) bool {
	switch p {
	case ProviderMercadoPago, ProviderPaypal, ProviderStripe:
		return true
	}
	return false
}

// PaymentDetails is a snapshot of the pre-validated payment, embedded in the order.
// The payment itself is handled upstream; we only record what the provider reported.
type PaymentDetails struct {
	PaymentID     string          `json:"payment_id" gorm:"Column:payment_id"`
	PaymentStatus string          `json:"payment_status" gorm:"Column:payment_status"`
	Amount        float64         `json:"amount" gorm:"Column:amount"`
	Provider      PaymentProvider `json:"provider" gorm:"Column:provider"`
	Email         string          `json:"email" gorm:"Column:email"`
}

// Voucher is the gift certificate embedded in an order. Its Code is globally
// unique across all orders and is the stable identity for the PDF artifact.
type Voucher struct {
	Code           string          `json:"code" gorm:"Column:code;uniqueIndex:idx_orders_voucher_code"`
	Status         VoucherStatus   `json:"status" gorm:"Column:status;default:'active'"`
	IsRedeemed     bool            `json:"is_redeemed" gorm:"Column:is_redeemed;default:false"`
	RedeemedAt     *time.Time      `json:"redeemed_at" gorm:"Column:redeemed_at"`
	ExpirationDate time.Time       `json:"expiration_date" gorm:"Column:expiration_date"`
	Amount         float64         `json:"amount" gorm:"Column:amount"`
	StoreID        uuid.UUID       `json:"store_id" gorm:"Column:store_id"`
	ProductID      uuid.UUID       `json:"product_id" gorm:"Column:product_id"`
	SenderName     string          `json:"sender_name" gorm:"Column:sender_name"`
	SenderEmail    string          `json:"sender_email" gorm:"Column:sender_email"`
	ReceiverName   string          `json:"receiver_name" gorm:"Column:receiver_name"`
	ReceiverEmail  string          `json:"receiver_email" gorm:"Column:receiver_email"`
	Message        string          `json:"message" gorm:"Column:message;type:text"`
	Template       VoucherTemplate `json:"template" gorm:"Column:template"`
	QRCode         string          `json:"qr_code,omitempty" gorm:"Column:qr_code;type:text"`
}

// Order is the purchase aggregate. The voucher is embedded rather than joined:
// an order always carries exactly one voucher and they share a lifecycle.
type Order struct {
	Model
	CustomerID     uuid.UUID      `json:"customer_id" gorm:"Column:customer_id;index"`
	Customer       *Customer      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	PaymentDetails PaymentDetails `json:"payment_details" gorm:"embedded;embeddedPrefix:payment_"`
	Voucher        Voucher        `json:"voucher" gorm:"embedded;embeddedPrefix:voucher_"`
	EmailsSent     bool           `json:"emails_sent" gorm:"Column:emails_sent;default:false"`
	PDFGenerated   bool           `json:"pdf_generated" gorm:"Column:pdf_generated;default:false"`
	PDFURL         string         `json:"pdf_url,omitempty" gorm:"Column:pdf_url"`
}

// TableName overrides the default table name
func (Order) TableName() string {
	return "orders"
}
