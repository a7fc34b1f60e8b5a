package shopify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPageURL(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "empty header",
			header: "",
			want:   "",
		},
		{
			name:   "next only",
			header: `<https://shop.myshopify.com/admin/api/2024-01/orders.json?page_info=abc&limit=250>; rel="next"`,
			want:   "https://shop.myshopify.com/admin/api/2024-01/orders.json?page_info=abc&limit=250",
		},
		{
			name:   "previous and next",
			header: `<https://shop.myshopify.com/orders.json?page_info=prev>; rel="previous", <https://shop.myshopify.com/orders.json?page_info=next>; rel="next"`,
			want:   "https://shop.myshopify.com/orders.json?page_info=next",
		},
		{
			name:   "previous only",
			header: `<https://shop.myshopify.com/orders.json?page_info=prev>; rel="previous"`,
			want:   "",
		},
		{
			name:   "tolerates extra whitespace",
			header: `<https://shop.myshopify.com/orders.json?page_info=x> ;  rel="next"`,
			want:   "https://shop.myshopify.com/orders.json?page_info=x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPageURL(tt.header))
		})
	}
}
