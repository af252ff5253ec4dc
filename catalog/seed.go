package catalog

import contractx "github.com/pattarin-dev/shopflow/agent/contract"

// SeedProducts is the built-in demo inventory.
func SeedProducts() []contractx.ProductDetails {
	return []contractx.ProductDetails{
		{
			Product: contractx.Product{
				ID:          "p1001",
				Name:        "Budget Gaming Laptop",
				Description: "Affordable gaming laptop with great performance",
				Price:       799.99,
				ImageURL:    "https://example.com/images/laptop1.jpg",
				Category:    "Laptops",
				Brand:       "TechX",
				Rating:      4.3,
				InStock:     true,
			},
			LongDescription: "Budget gaming laptop with a dedicated graphics card and a high refresh rate display.",
			Specifications: map[string]string{
				"processor": "AMD Ryzen 5 5600H",
				"memory":    "8GB DDR4",
				"storage":   "512GB SSD",
				"display":   "15.6-inch FHD 144Hz",
				"graphics":  "NVIDIA GeForce GTX 1650",
			},
			Tags: []string{"gaming", "budget", "laptop", "nvidia", "amd"},
		},
		{
			Product: contractx.Product{
				ID:          "p1002",
				Name:        "Ultra-thin Professional Laptop",
				Description: "Sleek and powerful laptop for professionals",
				Price:       1299.99,
				ImageURL:    "https://example.com/images/laptop2.jpg",
				Category:    "Laptops",
				Brand:       "Macrosoft",
				Rating:      4.7,
				InStock:     true,
			},
			LongDescription: "Thin and light professional laptop with long battery life.",
			Specifications: map[string]string{
				"processor": "Intel Core i7-1185G7",
				"memory":    "16GB LPDDR4X",
				"storage":   "1TB SSD",
				"display":   "14-inch QHD IPS",
			},
			Tags: []string{"professional", "thin", "lightweight", "business", "premium"},
		},
		{
			Product: contractx.Product{
				ID:          "p1003",
				Name:        "Smart 4K Television",
				Description: "4K UHD Smart TV with voice control",
				Price:       549.99,
				ImageURL:    "https://example.com/images/tv1.jpg",
				Category:    "Televisions",
				Brand:       "VisionPlus",
				Rating:      4.5,
				InStock:     true,
			},
			LongDescription: "55-inch 4K television with streaming apps and voice control.",
			Specifications: map[string]string{
				"screen_size":  "55 inches",
				"resolution":   "3840x2160",
				"refresh_rate": "60Hz",
			},
			Tags: []string{"television", "4k", "smart tv", "entertainment", "streaming"},
		},
		{
			Product: contractx.Product{
				ID:          "p1004",
				Name:        "Wireless Noise Cancelling Headphones",
				Description: "Premium wireless headphones with active noise cancellation",
				Price:       249.99,
				ImageURL:    "https://example.com/images/headphones1.jpg",
				Category:    "Audio",
				Brand:       "SoundMaster",
				Rating:      4.8,
				InStock:     true,
			},
			LongDescription: "Over-ear wireless headphones with adjustable noise cancellation and 30 hour battery.",
			Specifications: map[string]string{
				"type":         "Over-ear",
				"connectivity": "Bluetooth 5.0, 3.5mm jack",
				"battery_life": "Up to 30 hours",
			},
			Tags: []string{"audio", "wireless", "headphones", "noise cancelling", "bluetooth"},
		},
		{
			Product: contractx.Product{
				ID:          "p1005",
				Name:        "High-Performance Smartphone",
				Description: "Flagship smartphone with advanced camera system",
				Price:       899.99,
				ImageURL:    "https://example.com/images/phone1.jpg",
				Category:    "Smartphones",
				Brand:       "Pear",
				Rating:      4.9,
				InStock:     true,
			},
			LongDescription: "Flagship smartphone with a triple camera system and all-day battery life.",
			Specifications: map[string]string{
				"display": "6.5-inch OLED 120Hz",
				"memory":  "8GB RAM",
				"storage": "256GB",
				"battery": "4500mAh",
			},
			Tags: []string{"smartphone", "camera", "mobile", "5g", "flagship"},
		},
	}
}
