package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
)

// ContentRecord is one stored content document for a property.
type ContentRecord struct {
	PropertyID int64
	Name       *string
	RawJSON    []byte // full content document as delivered upstream
	FetchedAt  time.Time
}

// Document is the content document: a typed view for the fields the pages
// read directly, plus the raw tree for dotted lookups into custom fields.
type Document struct {
	Property   Property       `json:"property"`
	Rooms      []Room         `json:"rooms"`
	Homepage   Homepage       `json:"homepage"`
	GpensionID ID             `json:"gpension_id"`
	Raw        map[string]any `json:"-"`
	Issues     []string       `json:"-"` // leaves left zero after a failed decode
}

type Property struct {
	Name             string          `json:"name"`
	NameEn           string          `json:"nameEn"`
	Address          string          `json:"address"`
	Latitude         float64         `json:"latitude"`
	Longitude        float64         `json:"longitude"`
	ContactPhone     string          `json:"contactPhone"`
	CheckinTime      string          `json:"checkinTime"`
	CheckoutTime     string          `json:"checkoutTime"`
	BusinessInfo     *BusinessInfo   `json:"businessInfo"`
	ReservationGuide string          `json:"reservationGuide"`
	UsageGuide       string          `json:"usageGuide"`
	CheckInOutInfo   string          `json:"checkInOutInfo"`
	RefundSettings   *RefundSettings `json:"refundSettings"`
	RefundPolicies   []RefundPolicy  `json:"refundPolicies"`
	Facilities       []Facility      `json:"facilities"`
	GpensionID       ID              `json:"gpension_id"`
	GpensionIDCamel  ID              `json:"gpensionId"`
}

// HasCoords reports whether both coordinates are set (zero counts as unset).
func (p Property) HasCoords() bool { return p.Latitude != 0 && p.Longitude != 0 }

type BusinessInfo struct {
	BusinessName                string       `json:"businessName"`
	RepresentativeName          string       `json:"representativeName"`
	BusinessAddress             string       `json:"businessAddress"`
	BusinessNumber              string       `json:"businessNumber"`
	BusinessPhone               string       `json:"businessPhone"`
	ECommerceRegistrationNumber string       `json:"eCommerceRegistrationNumber"`
	BankAccount                 *BankAccount `json:"bankAccount"`
}

type BankAccount struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	AccountHolder string `json:"accountHolder"`
}

type RefundSettings struct {
	CustomerRefundNotice string `json:"customerRefundNotice"`
}

type RefundPolicy struct {
	RefundProcessingDays int     `json:"refundProcessingDays"`
	RefundRate           float64 `json:"refundRate"`
}

type Room struct {
	ID             ID           `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	BaseOccupancy  int          `json:"baseOccupancy"`
	MaxOccupancy   int          `json:"maxOccupancy"`
	RoomViews      []string     `json:"roomViews"`
	BedTypes       []string     `json:"bedTypes"`
	RoomStructures []string     `json:"roomStructures"`
	RoomInfo       string       `json:"roomInfo"`
	Amenities      []Amenity    `json:"amenities"`
	Images         []RoomImages `json:"images"`
}

// Interior returns the first interior image group, or nil.
func (r Room) Interior() []Image {
	if len(r.Images) == 0 {
		return nil
	}
	return r.Images[0].Interior
}

type RoomImages struct {
	Interior []Image `json:"interior"`
	Exterior []Image `json:"exterior"`
}

type Facility struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UsageGuide  string  `json:"usageGuide"`
	Images      []Image `json:"images"`
}

type Image struct {
	URL         string  `json:"url" mapstructure:"url"`
	Description string  `json:"description" mapstructure:"description"`
	IsSelected  bool    `json:"isSelected" mapstructure:"isSelected"`
	SortOrder   float64 `json:"sortOrder" mapstructure:"sortOrder"`
}

type Homepage struct {
	Images []LogoGroup `json:"images"`
	SEO    SEO         `json:"seo"`
}

type LogoGroup struct {
	Logo []Image `json:"logo"`
}

type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// Section is a free-form block under homepage.customFields.pages.
type Section struct {
	Title       string       `mapstructure:"title"`
	Description string       `mapstructure:"description"`
	Images      []Image      `mapstructure:"images"`
	Experiences []Experience `mapstructure:"experiences"`
}

type Experience struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Image       Image  `mapstructure:"image"`
}

// ID is an item id; upstream sends both strings and numbers.
type ID string

func (id ID) String() string { return string(id) }

// IDOf normalizes a raw id value. Numbers never use exponent notation, so
// 1234567 and "1234567" compare equal.
func IDOf(v any) ID {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return ID(x)
	case float64:
		return ID(strconv.FormatFloat(x, 'f', -1, 64))
	case int:
		return ID(strconv.Itoa(x))
	case int64:
		return ID(strconv.FormatInt(x, 10))
	}
	return ID(fmt.Sprint(v))
}

// Amenity accepts "냉장고", {"name":"냉장고"} and {"name":{"ko":"냉장고"}}.
type Amenity struct {
	Name string `json:"name"`
}

func amenityName(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case map[string]any:
		switch n := x["name"].(type) {
		case string:
			return n
		case map[string]any:
			ko, _ := n["ko"].(string)
			return ko
		}
	}
	return ""
}

var (
	idType      = reflect.TypeOf(ID(""))
	amenityType = reflect.TypeOf(Amenity{})
)

func flexibleHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case idType:
		return IDOf(data), nil
	case amenityType:
		return map[string]any{"name": amenityName(data)}, nil
	}
	return data, nil
}

// ParseDocument decodes a content document into its typed and raw views.
// Only malformed JSON or a wrongly shaped top-level block fails; a leaf of
// the wrong type is coerced when possible, otherwise left zero and noted in
// Issues.
func ParseDocument(raw []byte) (*Document, error) {
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if tree == nil {
		tree = map[string]any{}
	}
	in, err := typedInput(tree)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	doc := Document{Raw: tree}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       flexibleHook,
	})
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		var merr *mapstructure.Error
		if !errors.As(err, &merr) {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		doc.Issues = merr.Errors
	}
	return &doc, nil
}

// typedInput checks the shape of the blocks the typed view reads and drops
// list entries that are not objects, so they cannot turn into empty rooms or
// facilities.
func typedInput(tree map[string]any) (map[string]any, error) {
	in := make(map[string]any, len(tree))
	for k, v := range tree {
		in[k] = v
	}
	for _, key := range []string{"property", "homepage"} {
		switch v := tree[key].(type) {
		case nil, map[string]any:
		default:
			return nil, fmt.Errorf("%s is %T, want an object", key, v)
		}
	}
	rooms, err := objects(tree, "rooms")
	if err != nil {
		return nil, err
	}
	in["rooms"] = rooms

	if p, ok := tree["property"].(map[string]any); ok {
		prop := make(map[string]any, len(p))
		for k, v := range p {
			prop[k] = v
		}
		facilities, err := objects(p, "facilities")
		if err != nil {
			return nil, fmt.Errorf("property.%w", err)
		}
		prop["facilities"] = facilities
		in["property"] = prop
	}
	return in, nil
}

func objects(m map[string]any, key string) ([]any, error) {
	switch v := m[key].(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]any, 0, len(v))
		for _, it := range v {
			if _, ok := it.(map[string]any); ok {
				out = append(out, it)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s is %T, want a list", key, v)
	}
}

// BookingID returns the booking engine id from whichever field carries it.
func (d *Document) BookingID() string {
	for _, v := range []ID{d.Property.GpensionID, d.Property.GpensionIDCamel, d.GpensionID} {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

// RoomByID returns the room and its index, or -1.
func (d *Document) RoomByID(id string) (Room, int) {
	for i, r := range d.Rooms {
		if string(r.ID) == id {
			return r, i
		}
	}
	return Room{}, -1
}

// FacilityByID returns the facility and its index, or -1.
func (d *Document) FacilityByID(id string) (Facility, int) {
	for i, f := range d.Property.Facilities {
		if string(f.ID) == id {
			return f, i
		}
	}
	return Facility{}, -1
}

// FormatPropertyID is the canonical string form used in cache keys and URLs.
func FormatPropertyID(id int64) string { return strconv.FormatInt(id, 10) }
