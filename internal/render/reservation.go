package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"pension_site/internal/domain"
)

type ReservationMapper struct{ *Base }

func NewReservationMapper(dom *goquery.Document, loader Loader) *ReservationMapper {
	return &ReservationMapper{Base: NewBase(dom, loader)}
}

func (m *ReservationMapper) MapPage() error {
	if !m.Loaded {
		log.Error().Str("page", "reservation").Msg("cannot map page: data not loaded")
		return ErrNotLoaded
	}
	m.mapHero()
	m.mapInfo()
	m.mapRules()
	m.mapRefund()

	var meta *MetaOverrides
	if name := m.Data.Property.Name; name != "" {
		meta = &MetaOverrides{Title: "예약안내 - " + name}
	}
	m.UpdateMetaTags(meta)
	m.MapEcommerceRegistration()
	return nil
}

const reservationSections = "homepage.customFields.pages.reservation.sections.0"

func (m *ReservationMapper) mapHero() {
	if m.SafeGet(reservationSections) == nil {
		return
	}
	hero := m.Section(reservationSections + ".hero")
	var images []domain.Image
	title := ""
	if hero != nil {
		images, title = hero.Images, hero.Title
	}
	applyFirstImage(m.SafeSelect("[data-reservation-hero-image]"), images, "예약안내")
	setText(m.SafeSelect("[data-reservation-hero-title]"), firstNonEmpty(title, "예약안내"))
}

// applyFirstImage uses the first image as delivered, without selection or
// ordering, or the placeholder.
func applyFirstImage(img *goquery.Selection, images []domain.Image, fallbackAlt string) {
	if !present(img) {
		return
	}
	if len(images) == 0 || images[0].URL == "" {
		ApplyPlaceholder(img)
		return
	}
	ApplyImage(img, images[0], fallbackAlt)
}

func (m *ReservationMapper) mapInfo() {
	p := m.Data.Property
	about := m.Section(reservationSections + ".about")
	if about == nil {
		about = &domain.Section{}
	}
	applyFirstImage(m.SafeSelect("[data-reservation-info-image]"), about.Images, "예약 안내 이미지")
	setText(m.SafeSelect("[data-reservation-info-title]"), firstNonEmpty(about.Title, "예약 안내"))
	setMultiline(m.SafeSelect("[data-reservation-info-description]"), firstNonEmpty(about.Description,
		p.Name+"에서 특별한 휴식을\n경험하세요. 자연과 함께하는 프리미엄 숙박\n서비스를 제공합니다."))

	info := p.BusinessInfo
	if info == nil {
		return
	}
	if info.BusinessPhone != "" {
		setText(m.SafeSelect(".contact-item:nth-child(2) .contact-value"), info.BusinessPhone)
	}
	if acct := info.BankAccount; acct != nil {
		setText(m.SafeSelect(".contact-item:nth-child(3) .contact-value"),
			fmt.Sprintf("%s %s (예금주 %s)", acct.BankName, acct.AccountNumber, acct.AccountHolder))
	}
}

func (m *ReservationMapper) mapRules() {
	p := m.Data.Property
	setText(m.SafeSelect("[data-reservation-guide-title]"), "예약안내")
	if p.ReservationGuide != "" {
		fillRules(m.SafeSelect(".reservation-guide-rules"), p.ReservationGuide)
	}
	setText(m.SafeSelect("[data-reservation-usage-title]"), "이용안내")
	if p.UsageGuide != "" {
		fillRules(m.SafeSelect(".usage-rules"), p.UsageGuide)
	}
	setText(m.SafeSelect("[data-reservation-checkin-title]"), "입/퇴실 안내")
	if p.CheckInOutInfo != "" {
		if section := m.SafeSelect(".checkin-checkout-section"); section != nil {
			show(section, "block")
			fillRules(m.SafeSelect(".checkin-checkout-rules"), p.CheckInOutInfo)
		}
	}
}

// fillRules writes one paragraph per non-blank line.
func fillRules(container *goquery.Selection, text string) {
	if !present(container) {
		return
	}
	container.Empty()
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		container.AppendHtml("<p>" + attr(line) + "</p>")
	}
}

func (m *ReservationMapper) mapRefund() {
	p := m.Data.Property
	setText(m.SafeSelect("[data-reservation-refund-title]"), "환불규정")
	if p.RefundSettings != nil && p.RefundSettings.CustomerRefundNotice != "" {
		fillRules(m.SafeSelect(".refund-rules"), p.RefundSettings.CustomerRefundNotice)
	}
	setText(m.SafeSelect("[data-reservation-table-title]"), "취소 수수료 안내")
	if p.RefundPolicies == nil {
		return
	}
	body := m.SafeSelect(".refund-table-body")
	if body == nil {
		return
	}
	body.Empty()
	for _, rp := range p.RefundPolicies {
		class := ""
		if rp.RefundRate == 0 {
			class = "no-refund"
		}
		body.AppendHtml(fmt.Sprintf(`<tr><td>%s</td><td class="%s">%s</td></tr>`,
			RefundPeriod(rp.RefundProcessingDays), class, RefundRateText(rp.RefundRate)))
	}
}

func RefundPeriod(days int) string {
	switch days {
	case 0:
		return "이용일 당일"
	case 1:
		return "이용일 1일 전"
	}
	return fmt.Sprintf("이용일 %d일 전", days)
}

func RefundRateText(rate float64) string {
	if rate == 0 {
		return "환불 불가"
	}
	return num(rate) + "% 환불"
}
