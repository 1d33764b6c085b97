package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/config"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/data"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/types"
	"github.com/nicolasbuelvas/b2b-action-workforce-control-system-sub000/src/api/webserver"
	"gorm.io/gorm"
)

var allModels = []interface{}{
	&types.Company{}, &types.LinkedInProfile{}, &types.Category{},
	&types.CategoryRule{}, &types.CooldownRule{},
	&types.ResearchTask{}, &types.ResearchSubmission{},
	&types.InquiryTask{}, &types.InquiryAction{}, &types.InquirySnapshot{},
	&types.CooldownRecord{}, &types.LastContact{}, &types.ScreenshotHash{},
	&types.AuditDecision{}, &types.FlaggedAction{},
}

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	migrate(db)

	rdb := data.MustRedis(cfg.RedisURL)

	router := webserver.New(cfg, db, rdb)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("Workforce API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
