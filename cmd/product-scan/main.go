// Package main provides the product-scan command line tool.
//
// It captures a still of a product label from an image file, an HTTP
// snapshot camera or a local webcam, and prints the health pros and cons
// and the environmental impact of the product.
//
// Usage:
//
//	product-scan scan --file label.jpg
//	product-scan scan --url http://camera.local/snapshot.jpg --format markdown
//
// Configuration is read from the environment and from
// $XDG_CONFIG_HOME/telegram-product-scanner/config.env.
package main

func main() {
	Execute()
}
