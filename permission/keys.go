package permission

// Permission keys understood by the admin client. This is the closed set the
// backend and the view binder agree on; anything else is dropped during
// normalization.
const (
	KeyAdminPanel   = "adminPanel"
	KeyCashier      = "cashier"
	KeyKitchen      = "kitchen"
	KeyStats        = "stats"
	KeyProductsView = "productsView"
	KeyProductsEdit = "productsEdit"
	KeyVouchersView = "vouchersView"
	KeyVouchersEdit = "vouchersEdit"
	KeyReservations = "reservations"
	KeyTax          = "tax"
	KeyPoints       = "points"
	KeyAccounts     = "accounts"
	KeyQR           = "qr"
)

// DefaultKeys lists every permission key in a stable order.
var DefaultKeys = []string{
	KeyAdminPanel,
	KeyCashier,
	KeyKitchen,
	KeyStats,
	KeyProductsView,
	KeyProductsEdit,
	KeyVouchersView,
	KeyVouchersEdit,
	KeyReservations,
	KeyTax,
	KeyPoints,
	KeyAccounts,
	KeyQR,
}

// DefaultRegistry builds a frozen registry over [DefaultKeys].
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, key := range DefaultKeys {
		// Keys are unique literals; Register cannot fail here.
		_ = r.Register(key)
	}
	r.Freeze()
	return r
}

// Effective returns the binder-visible view of s: edit rights imply the
// matching view rights even when the raw fetched value denied them. The cache
// itself stores the raw set; this derivation belongs to the presentation
// boundary.
func Effective(s Set) Set {
	out := s.Clone()
	if out[KeyProductsEdit] {
		out[KeyProductsView] = true
	}
	return out
}
