// cmd/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"roam-bridge/internal/config"
	"roam-bridge/internal/di"
	"syscall"
	"time"
)

func main() {
	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DI 컨테이너 생성
	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		panic("Failed to create DI container: " + err.Error())
	}
	defer container.Cleanup()

	// 게스트 사이언스 토픽 구독
	if err := container.Host.Serve(ctx); err != nil {
		container.Logger.Fatalf("Failed to start guest science host: %v", err)
	}

	go func() {
		if err := container.Server.Start(); err != nil {
			container.Logger.Errorf("%v", err)
		}
	}()

	container.Logger.Infof("🎯 Roam bridge ready (apk=%s, master=%s, host=%s)",
		cfg.APKName, cfg.MasterURI, cfg.Hostname)

	// 종료 신호 또는 GS 매니저 종료 대기
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		container.Logger.Infof("🛑 Shutdown signal received")
		if container.Service.Running() {
			if err := container.Service.Stop(); err != nil {
				container.Logger.Warnf("Stop on shutdown: %v", err)
			}
		}
	case <-container.Host.Done():
		container.Logger.Infof("🛑 Guest science session terminated")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := container.Server.Shutdown(shutdownCtx); err != nil {
		container.Logger.Warnf("HTTP server shutdown error: %v", err)
	}

	container.Logger.Infof("✅ Roam bridge shutdown completed")
}
