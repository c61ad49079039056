package api

// TokenPair is returned by the login and refresh endpoints.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Book represents one catalog entry
type Book struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Slug        string `json:"slug"`
	Language    int    `json:"language"`
	HasEbook    bool   `json:"hasEbook"`
	HasAudio    bool   `json:"hasAudio"`
	HasPhysical bool   `json:"hasPhysical"`
	MinPrice    int64  `json:"minPrice"`
}

// BookPage represents a paginated catalog listing
type BookPage struct {
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Items    []Book `json:"items"`
}

// PwywPolicy is the pay-what-you-want pricing policy of a book.
// Amounts are in tiyn (1/100 tenge).
type PwywPolicy struct {
	MinPriceTiyn int64 `json:"minPriceTiyn"`
}

// BookDetails represents the full book record from /api/books/{id}
type BookDetails struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Author       string      `json:"author"`
	Slug         string      `json:"slug"`
	Description  string      `json:"description"`
	MinPriceTiyn int64       `json:"minPriceTiyn"`
	PwywPolicy   *PwywPolicy `json:"pwywPolicy,omitempty"`
}

// LibraryItem represents one owned book from /api/me/library
type LibraryItem struct {
	BookID     string `json:"bookId"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Slug       string `json:"slug"`
	AllowEbook bool   `json:"allowEbook"`
	AllowAudio bool   `json:"allowAudio"`
	EbookURL   string `json:"ebookUrl,omitempty"`
	AudioURL   string `json:"audioUrl,omitempty"`
	GrantedAt  string `json:"grantedAt"`
}

// AccessDecision is the server-computed entitlement for one book.
// AllowEbook && HasLicense is the sole gate for reading or downloading
// the ebook artifact.
type AccessDecision struct {
	BookID     string `json:"bookId"`
	HasLicense bool   `json:"hasLicense"`
	AllowEbook bool   `json:"allowEbook"`
	AllowAudio bool   `json:"allowAudio"`
	EbookURL   string `json:"ebookUrl,omitempty"`
	AudioURL   string `json:"audioUrl,omitempty"`
}

// Order represents a placed order
type Order struct {
	ID         string `json:"id"`
	BookID     string `json:"bookId"`
	AmountTiyn int64  `json:"amountTiyn"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
}

// errorResponse is the structured error body the API returns on failure
type errorResponse struct {
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}
