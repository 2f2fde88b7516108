package render

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"pension_site/internal/domain"
	"pension_site/internal/slider"
)

// amenityIcons maps known amenity names to SVG path data.
var amenityIcons = map[string]string{
	"간이 주방":  "M3 6h18M3 6l3-3h12l3 3M3 6v15a2 2 0 002 2h14a2 2 0 002-2V6M10 12h4",
	"냉장고":    "M5 3h14a2 2 0 012 2v14a2 2 0 01-2 2H5a2 2 0 01-2-2V5a2 2 0 012-2zM12 8h.01M12 16h.01",
	"전자레인지":  "M3 7h18v10H3V7zM7 7V3a1 1 0 011-1h8a1 1 0 011 1v4M9 12h6",
	"인덕션":    "M8 12a4 4 0 118 0 4 4 0 01-8 0zM12 8v8M8 12h8",
	"조리도구":   "M12 2l3.09 6.26L22 9.27l-5 4.87 1.18 6.88L12 17.77l-6.18 3.25L7 14.14 2 9.27l6.91-1.01L12 2z",
	"그릇":     "M21 12c0 4.97-4.03 9-9 9s-9-4.03-9-9 4.03-9 9-9 9 4.03 9 9zM8 12h8",
	"정수기":    "M12 2v20M8 5h8M6 12h12M8 19h8",
	"와이파이":   "M2 7h20M2 12h20M2 17h20",
	"에어컨":    "M3 12h18M3 8h18M3 16h18M12 3v18",
	"침구류":    "M3 7h18v10H3V7zM7 3h10v4H7V3z",
	"수건":     "M3 12h18M6 7h12M6 17h12",
	"어메니티":   "M9 12l2 2 4-4m6 2a9 9 0 11-18 0 9 9 0 0118 0z",
	"청소용품":   "M6 2l3 6 5-4-8 13 4-7 6 2z",
	"헤어드라이어": "M9 12l2 2 4-4m6 2a9 9 0 11-18 0 9 9 0 0118 0z",
}

const defaultAmenityIcon = "M9 12l2 2 4-4m6 2a9 9 0 11-18 0 9 9 0 0118 0z"

func AmenityIcon(name string) string {
	if p, ok := amenityIcons[name]; ok {
		return p
	}
	return defaultAmenityIcon
}

type RoomMapper struct {
	*Base
	RoomID string

	room  domain.Room
	found bool
}

func NewRoomMapper(dom *goquery.Document, loader Loader, roomID string) *RoomMapper {
	return &RoomMapper{Base: NewBase(dom, loader), RoomID: roomID}
}

func (m *RoomMapper) MapPage() error {
	if !m.Loaded {
		log.Error().Str("page", "room").Msg("cannot map page: data not loaded")
		return ErrNotLoaded
	}
	if err := m.resolve(); err != nil {
		return err
	}
	if !m.found {
		log.Warn().Str("page", "room").Str("room_id", m.RoomID).Msg("cannot map page: room not found")
		return nil
	}
	m.mapHero()
	m.mapInfo()
	m.mapAmenities()
	m.mapGallery()

	var meta *MetaOverrides
	if m.room.Name != "" && m.Data.Property.Name != "" {
		meta = &MetaOverrides{Title: m.room.Name + " - " + m.Data.Property.Name}
	}
	m.UpdateMetaTags(meta)
	m.MapEcommerceRegistration()
	return nil
}

// resolve picks the current room. A missing id redirects to the first room.
func (m *RoomMapper) resolve() error {
	rooms := m.Data.Rooms
	if m.RoomID == "" {
		if len(rooms) > 0 {
			return &RedirectError{Location: "room.html?id=" + url.QueryEscape(string(rooms[0].ID))}
		}
		return nil
	}
	r, i := m.Data.RoomByID(m.RoomID)
	m.room, m.found = r, i >= 0
	return nil
}

func (m *RoomMapper) mapHero() {
	setText(m.SafeSelect("[data-room-hero-name]"), m.room.Name)

	if desc := m.SafeSelect("[data-room-hero-description]"); desc != nil {
		if page := m.itemPage("room", string(m.room.ID), "hero"); page != nil && page.Title != "" {
			setMultiline(desc, page.Title)
		} else {
			desc.SetText(m.room.Name + "에서 편안한 휴식을 즐기세요.")
		}
	}
	m.mapHeroSlider()
}

func (m *RoomMapper) mapHeroSlider() {
	container := m.SafeSelect("[data-room-hero-slides-container]")
	if container == nil {
		return
	}
	overlay := m.SafeSelect(".hero-overlay")
	images := SortImages(m.room.Interior())
	if len(images) == 0 {
		container.SetHtml(`<div class="hero-slide active"><img class="w-full h-full object-cover" alt="이미지 없음" loading="eager"></div>`)
		ApplyPlaceholder(container.Find("img"), overlay)
		setText(m.SafeSelect("[data-room-total-slides]"), "01")
		return
	}

	container.Empty()
	show(overlay, "")
	for i, img := range images {
		class, loading := "hero-slide", "lazy"
		if i == 0 {
			class, loading = "hero-slide active", "eager"
		}
		container.AppendHtml(fmt.Sprintf(`<div class="%s"><img data-image-fallback class="w-full h-full object-cover" src="%s" alt="%s" loading="%s"></div>`,
			class, attr(img.URL), attr(firstNonEmpty(img.Description, m.room.Name)), loading))
	}
	c := slider.New(len(images), slider.HeroOptions())
	setText(m.SafeSelect("[data-room-total-slides]"), c.TotalIndicator())
	seedIndicator(m.Base, c)
}

func (m *RoomMapper) mapInfo() {
	r := m.room
	p := m.Data.Property

	setText(m.SafeSelect("[data-room-info-name]"), r.Name)
	if info := m.SafeSelect("[data-room-info-description]"); info != nil {
		if d := m.roomDescription(); d != "" {
			info.SetText(d)
		} else {
			info.SetText(firstNonEmpty(r.Description, r.Name+"의 상세 정보입니다."))
		}
	}

	baseOcc, maxOcc := r.BaseOccupancy, r.MaxOccupancy
	if baseOcc == 0 {
		baseOcc = 2
	}
	if maxOcc == 0 {
		maxOcc = 4
	}
	setText(m.SafeSelect("[data-room-capacity]"), fmt.Sprintf("기준 %d인 / 최대 %d인", baseOcc, maxOcc))
	setText(m.SafeSelect("[data-room-view]"), joinOr(r.RoomViews, "객실 뷰"))
	setText(m.SafeSelect("[data-room-bed-type]"), joinOr(r.BedTypes, "킹사이즈 침대"))
	setText(m.SafeSelect("[data-room-checkin-checkout]"), fmt.Sprintf("체크인 %s / 체크아웃 %s",
		firstNonEmpty(p.CheckinTime, "15:00"), firstNonEmpty(p.CheckoutTime, "11:00")))
	setText(m.SafeSelect("[data-room-structure]"), joinOr(r.RoomStructures, "침실 1개, 화장실 1개"))
	setMultiline(m.SafeSelect("[data-room-additional-info]"), firstNonEmpty(r.RoomInfo, "편안한 휴식 공간"))
}

func (m *RoomMapper) roomDescription() string {
	list, ok := m.SafeGet("homepage.customFields.roomPage.roomDescriptions").([]any)
	if !ok {
		return ""
	}
	for _, it := range list {
		d, ok := it.(map[string]any)
		if !ok || domain.IDOf(d["roomtypeId"]) != m.room.ID {
			continue
		}
		s, _ := d["infoDescription"].(string)
		return s
	}
	return ""
}

func joinOr(vals []string, fallback string) string {
	if len(vals) == 0 {
		return fallback
	}
	return strings.Join(vals, ", ")
}

func (m *RoomMapper) mapAmenities() {
	if len(m.room.Amenities) == 0 {
		return
	}
	grid := m.SafeSelect("[data-room-amenities-grid]")
	if grid == nil {
		return
	}
	grid.Empty()
	for _, a := range m.room.Amenities {
		grid.AppendHtml(fmt.Sprintf(`<div class="feature-item"><svg class="feature-icon" fill="none" stroke="currentColor" viewBox="0 0 24 24"><path stroke-linecap="round" stroke-linejoin="round" stroke-width="2" d="%s"/></svg><span class="text-base md:text-lg text-gray-600">%s</span></div>`,
			AmenityIcon(a.Name), attr(a.Name)))
	}
}

// mapGallery lays out the first three interior images as two left cells and
// one right cell, padding with placeholders.
func (m *RoomMapper) mapGallery() {
	grid := m.SafeSelect("[data-room-gallery-grid]")
	if grid == nil {
		return
	}
	grid.Empty()
	images := SortImages(m.room.Interior())
	cell := func(i int) string {
		if i < len(images) {
			img := images[i]
			return fmt.Sprintf(`<div class="gallery-item"><img data-image-fallback class="w-full h-full object-cover" src="%s" alt="%s" loading="lazy"></div>`,
				attr(img.URL), attr(firstNonEmpty(img.Description, m.room.Name)))
		}
		return fmt.Sprintf(`<div class="gallery-item"><img class="w-full h-full object-cover %s" src="%s" alt="%s" loading="lazy"></div>`,
			PlaceholderClass, attr(EmptyImageSVG), PlaceholderAlt)
	}
	grid.AppendHtml(`<div class="gallery-left">` + cell(0) + cell(1) + `</div>`)
	grid.AppendHtml(`<div class="gallery-right">` + cell(2) + `</div>`)
}
