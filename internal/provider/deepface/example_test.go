package deepface_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/saturnino-fabrica-de-software/classroll/internal/provider/deepface"
)

func ExampleProvider_DetectAndEncode() {
	config := deepface.DefaultConfig()
	config.BaseURL = "http://deepface:5000"
	p := deepface.NewProvider(config)

	imageBytes, err := os.ReadFile("classroom.jpg")
	if err != nil {
		log.Fatal(err)
	}

	faces, err := p.DetectAndEncode(context.Background(), imageBytes)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Detected %d faces\n", len(faces))
	for i, face := range faces {
		fmt.Printf("Face %d: confidence=%.2f, dims=%d\n", i+1, face.Confidence, len(face.Embedding))
	}
}
