package domain

import "time"

// GenerationMode is the resolved, mutually exclusive generation branch derived
// from the snapshot's side and variant flags. The executor dispatches on it
// with an exhaustive switch so an illegal flag combination can never select
// more than one branch.
type GenerationMode int

const (
	ModeFrontCampaign GenerationMode = iota + 1
	ModeFrontProductService
	ModeFrontSalesLetter
	ModeBack
)

func (m GenerationMode) String() string {
	switch m {
	case ModeFrontCampaign:
		return "front_campaign"
	case ModeFrontProductService:
		return "front_product_service"
	case ModeFrontSalesLetter:
		return "front_sales_letter"
	case ModeBack:
		return "back"
	}
	return "unknown"
}

// Product is one entry of the flyer's product list.
type Product struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	Highlight   bool   `json:"highlight,omitempty"`
}

// CampaignInfo carries campaign-variant copy for the front side.
type CampaignInfo struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Period   string `json:"period,omitempty"`
	Offer    string `json:"offer,omitempty"`
	Audience string `json:"audience,omitempty"`
}

// ProductServiceInfo carries product/service-variant copy for the front side.
type ProductServiceInfo struct {
	Headline     string `json:"headline"`
	Description  string `json:"description,omitempty"`
	SellingPoint string `json:"selling_point,omitempty"`
	Contact      string `json:"contact,omitempty"`
}

// SalesLetterInfo carries long-form sales-letter copy.
type SalesLetterInfo struct {
	Greeting  string `json:"greeting,omitempty"`
	Body      string `json:"body"`
	Signature string `json:"signature,omitempty"`
}

// AssetImage is one user-provided image (character art, logo, reference shot,
// illustration, customer or product photo) attached to the form.
type AssetImage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	MIME string `json:"mime,omitempty"`
	Data []byte `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Clone returns a copy with no shared backing arrays.
func (a AssetImage) Clone() AssetImage {
	out := a
	out.Data = append([]byte(nil), a.Data...)
	return out
}

func cloneAssetImages(in []AssetImage) []AssetImage {
	if in == nil {
		return nil
	}
	out := make([]AssetImage, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

// AssetSelection is the subset of library assets the user attached to the form.
type AssetSelection struct {
	Characters     []AssetImage `json:"characters,omitempty"`
	References     []AssetImage `json:"references,omitempty"`
	Logos          []AssetImage `json:"logos,omitempty"`
	Illustrations  []AssetImage `json:"illustrations,omitempty"`
	CustomerPhotos []AssetImage `json:"customer_photos,omitempty"`
	ProductPhotos  []AssetImage `json:"product_photos,omitempty"`
}

// Clone returns a deep copy of every selected asset.
func (s AssetSelection) Clone() AssetSelection {
	return AssetSelection{
		Characters:     cloneAssetImages(s.Characters),
		References:     cloneAssetImages(s.References),
		Logos:          cloneAssetImages(s.Logos),
		Illustrations:  cloneAssetImages(s.Illustrations),
		CustomerPhotos: cloneAssetImages(s.CustomerPhotos),
		ProductPhotos:  cloneAssetImages(s.ProductPhotos),
	}
}

// FormState is the live, editable flyer form. The snapshot builder copies it
// wholesale at enqueue time; nothing in the queue or executor ever holds a
// reference into a live FormState.
type FormState struct {
	Side            FlyerSide          `json:"side"`
	FrontFlyerType  FrontFlyerType     `json:"front_flyer_type,omitempty"`
	SalesLetterMode bool               `json:"sales_letter_mode,omitempty"`
	PatternCount    int                `json:"pattern_count"`
	ImageSize       string             `json:"image_size,omitempty"`
	Products        []Product          `json:"products,omitempty"`
	Campaign        CampaignInfo       `json:"campaign,omitempty"`
	ProductService  ProductServiceInfo `json:"product_service,omitempty"`
	SalesLetter     SalesLetterInfo    `json:"sales_letter,omitempty"`
	Assets          AssetSelection     `json:"assets,omitempty"`
}

// Clone returns a full structural copy of the form state.
func (f FormState) Clone() FormState {
	out := f
	out.Products = append([]Product(nil), f.Products...)
	out.Assets = f.Assets.Clone()
	return out
}

// Snapshot is the frozen input set a job executes against: credentials, mode
// flags and form content captured at the moment of enqueue.
type Snapshot struct {
	APIKey  string    `json:"api_key"`
	TakenAt time.Time `json:"taken_at"`
	Form    FormState `json:"form"`
}

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Form = s.Form.Clone()
	return out
}

// Mode resolves the snapshot's flag combination into the single generation
// branch that will execute. Back side wins over every front variant; in front
// mode the sales-letter flag wins over the flyer-type selector.
func (s Snapshot) Mode() GenerationMode {
	if s.Form.Side == FlyerSideBack {
		return ModeBack
	}
	if s.Form.SalesLetterMode {
		return ModeFrontSalesLetter
	}
	if s.Form.FrontFlyerType == FrontFlyerProductService {
		return ModeFrontProductService
	}
	return ModeFrontCampaign
}
