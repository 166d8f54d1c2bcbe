package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"propindex/pkg/client"
	"propindex/pkg/common"
)

func main() {
	fmt.Println("Connecting to propindex...")
	cli, err := client.Dial("localhost:9090")
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer cli.Close()

	listing := &common.Property{City: "Medellín", Bedrooms: 3, Bathrooms: 2, Price: 420000000, SurfaceTotal: 95}

	fmt.Printf("Writing: %s\n", listing)
	start := time.Now()
	key, err := cli.Put(listing)
	if err != nil {
		log.Fatalf("Put failed: %v", err)
	}
	fmt.Printf("Put done in %v, key=%g\n", time.Since(start), key)

	start = time.Now()
	got, err := cli.Get(key)
	if err != nil {
		log.Fatalf("Get failed: %v", err)
	}
	fmt.Printf("Got: %s (in %v)\n", got, time.Since(start))

	crit := common.NewCriteria()
	crit.City = "Medellín"
	crit.MinBedrooms = 2
	found, err := cli.Search(crit)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	fmt.Printf("Search matched %d listings\n", len(found))

	if err := cli.Delete(key); err != nil {
		log.Fatalf("Delete failed: %v", err)
	}
	if _, err := cli.Get(key); errors.Is(err, common.ErrNotFound) {
		fmt.Println("Deleted, lookup now misses as expected")
	}
}
