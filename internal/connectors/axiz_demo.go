package connectors

import "distributorsearch_api/internal/core/models"

type axizDemoEntry struct {
	sku         string
	name        string
	description string
	brand       string
	category    string
	price       float64
	stock       int
}

// axizDemoEntries is the built-in demo catalog served when no real endpoint
// or credentials are configured, and on any fetch failure. Deterministic by
// design so degraded mode is recognizable.
var axizDemoEntries = []axizDemoEntry{
	{"85B44EA", "Dell Latitude 5430 14\" Laptop", "Dell Latitude 5430 14\" FHD Business Laptop - Intel Core i5-1235U, 16GB RAM, 512GB SSD, Windows 11 Pro", "Dell", "laptop", 18999.00, 12},
	{"81A38EA", "Dell XPS 13 Plus 9320", "Dell XPS 13 Plus 9320 - 13.4\" OLED 3.5K Touch, Intel Core i7-1260P, 16GB RAM, 512GB SSD", "Dell", "laptop", 34999.00, 8},
	{"85B45EA", "Dell Inspiron 15 3520", "Dell Inspiron 15 3520 - 15.6\" FHD, Intel Core i5-1235U, 8GB RAM, 512GB SSD, Windows 11", "Dell", "laptop", 12999.00, 24},
	{"85B64EA", "Dell Inspiron 15 3525", "Dell Inspiron 15 3525 - 15.6\" FHD, AMD Ryzen 5 5625U, 8GB RAM, 256GB SSD, Windows 11", "Dell", "laptop", 11999.00, 18},
	{"85B71EA", "Dell Inspiron 15 3000", "Dell Inspiron 15 3000 - 15.6\" FHD, Intel Celeron N4020, 4GB RAM, 128GB SSD, Windows 11", "Dell", "laptop", 7999.00, 45},
	{"5F7N5ES", "Dell Precision 3580 Workstation", "Dell Precision 3580 Mobile Workstation - 15.6\" FHD, Intel Core i7-13800H, 32GB RAM, 1TB SSD, NVIDIA RTX A500", "Dell", "laptop", 54999.00, 5},
	{"884V6EA", "Dell UltraSharp U2723DE 27\" 4K Monitor", "Dell UltraSharp U2723DE 27\" 4K UHD IPS Monitor with USB-C, HDMI, DisplayPort", "Dell", "monitor", 12999.00, 18},
	{"6B2T6EA", "Dell P2723DE 27\" QHD Monitor", "Dell P2723DE 27\" QHD IPS Monitor with USB-C Hub, Height Adjustable Stand", "Dell", "monitor", 8999.00, 32},
	{"336H2EA", "Dell S2722DC 27\" QHD Monitor", "Dell S2722DC 27\" QHD USB-C Monitor with Built-in Speakers", "Dell", "monitor", 6999.00, 28},
	{"6S7V0EA", "Dell OptiPlex 7010 SFF Desktop", "Dell OptiPlex 7010 Small Form Factor - Intel Core i5-13500, 16GB RAM, 512GB SSD, Windows 11 Pro", "Dell", "desktop", 16999.00, 15},
	{"6S7U8EA", "Dell Vostro 3020 Desktop", "Dell Vostro 3020 Desktop - Intel Core i5-12400, 8GB RAM, 256GB SSD, Windows 11 Pro", "Dell", "desktop", 11999.00, 22},
	{"85B51EA", "Dell USB-C Hub WD19TB", "Dell USB-C Hub WD19TB - Thunderbolt 3 Docking Station with 180W Power Delivery", "Dell", "accessories", 6999.00, 45},
	{"85B52EA", "Dell KM5221W Wireless Keyboard & Mouse", "Dell KM5221W Wireless Keyboard and Mouse Combo with 2.4GHz and Bluetooth connectivity", "Dell", "accessories", 1299.00, 67},
	{"HP85B44EA", "HP Elitebook 650 G10", "HP Elitebook 650 G10 - Core i7-1355U 16GB (1x16GB) DDR4 512GB PCIe NVMe 15.6 FHD UWVA 250 WWAN HDC IR", "HPIC", "laptop", 20352.45, 10},
	{"HP81A38EA", "HP EliteBook 830 G10 LTE", "HP EliteBook 830 G10 LTE - Core i5-1335U 16GB (1x16GB) DDR4 512GB PCIe NVMe 13.3 WUXGA Windows 11 Pro 64", "HPIC", "laptop", 25306.18, 38},
	{"HP6S7V0EA", "HP 250 G9 Notebook", "HP 250 G9 Notebook Core i3-1215U 8GB (1x8GB) 1D DDR4 256GB PCIe NVMe 15.6 FHD AG SVA 250 WWAN", "HPIC", "laptop", 6499.30, 0},
	{"HP6B2T6EA", "HP Pro Tower 290 G9 TWR", "HP Pro Tower 290 G9 TWR - Core i7-12700 16GB (1x16GB) 512GB SSD Win11 Pro (Win10 Downgrade) DVD-WR ODD", "HPIC", "desktop", 18378.30, 0},
	{"HP5F7N5ES", "HP Z1 Entry Tower G9 IDS", "HP Z1 Entry Tower G9 IDS- Intel i9-12900 2.40G 16 cores 65W ECC 32GB (2x16GB) DDR5 1TB PCIe-4x4 2280 NVMe", "HPIC", "workstation", 40680.48, 2},
	{"20VYS19E00", "Lenovo ThinkPad E14 Gen 5", "Lenovo ThinkPad E14 Gen 5 - 14\" FHD, AMD Ryzen 5 7530U, 16GB RAM, 512GB SSD, Windows 11 Pro", "Lenovo", "laptop", 18999.00, 15},
}

func (c *AxizConnector) demoCatalog() []models.NormalizedProduct {
	products := make([]models.NormalizedProduct, 0, len(axizDemoEntries))
	for _, e := range axizDemoEntries {
		price := e.price
		products = append(products, models.NormalizedProduct{
			SKU:           e.sku,
			Name:          e.name,
			Description:   e.description,
			Category:      e.category,
			Brand:         e.brand,
			Price:         &price,
			Currency:      "ZAR",
			StockQuantity: e.stock,
			StockStatus:   models.StockStatusFor(e.stock),
		})
	}
	return products
}
