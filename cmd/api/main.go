package main

import (
	"go.uber.org/fx"

	"github.com/carlostcba/GustadosPOS-sub000/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
