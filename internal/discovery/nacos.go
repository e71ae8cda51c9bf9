// Package discovery 负责将服务注册到Nacos
package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"fulfillment-service/internal/config"
	"fulfillment-service/internal/logger"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

// DefaultHeartbeatInterval 默认心跳间隔
const DefaultHeartbeatInterval = 5 * time.Second

// instanceClient 注册所需的命名服务操作
type instanceClient interface {
	RegisterInstance(param vo.RegisterInstanceParam) (bool, error)
	DeregisterInstance(param vo.DeregisterInstanceParam) (bool, error)
	UpdateInstance(param vo.UpdateInstanceParam) (bool, error)
}

// Registrar 服务实例注册器
type Registrar struct {
	client   instanceClient
	cfg      config.NacosConfig
	ip       string
	port     int
	interval time.Duration
	log      logger.Logger

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewRegistrar 创建Nacos注册器，ip为空时自动获取本机IP
func NewRegistrar(cfg config.NacosConfig, ip string, port int, log logger.Logger) (*Registrar, error) {
	applyDefaults(&cfg)

	serverConfigs, err := parseServerAddrs(cfg.ServerAddr)
	if err != nil {
		return nil, err
	}

	if ip == "" {
		ip, err = localIP()
		if err != nil {
			return nil, fmt.Errorf("无法获取本机IP: %w", err)
		}
	}

	clientConfig := constant.ClientConfig{
		NamespaceId:         cfg.NamespaceID,
		TimeoutMs:           5000,
		NotLoadCacheAtStart: true,
		LogDir:              cfg.LogDir,
		CacheDir:            cfg.CacheDir,
		LogLevel:            "info",
	}

	namingClient, err := clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  &clientConfig,
		ServerConfigs: serverConfigs,
	})
	if err != nil {
		return nil, fmt.Errorf("创建Nacos命名服务客户端失败: %w", err)
	}

	return newRegistrar(namingClient, cfg, ip, port, log), nil
}

func newRegistrar(client instanceClient, cfg config.NacosConfig, ip string, port int, log logger.Logger) *Registrar {
	applyDefaults(&cfg)
	return &Registrar{
		client:   client,
		cfg:      cfg,
		ip:       ip,
		port:     port,
		interval: DefaultHeartbeatInterval,
		log:      log,
	}
}

func applyDefaults(cfg *config.NacosConfig) {
	if cfg.NamespaceID == "" {
		cfg.NamespaceID = "public"
	}
	if cfg.Group == "" {
		cfg.Group = "DEFAULT_GROUP"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "/tmp/nacos/log"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "/tmp/nacos/cache"
	}
	if cfg.Weight <= 0 {
		cfg.Weight = 10
	}
}

// parseServerAddrs 解析逗号分隔的host:port列表
func parseServerAddrs(addrs string) ([]constant.ServerConfig, error) {
	var serverConfigs []constant.ServerConfig
	for _, addr := range strings.Split(addrs, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}

		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("无效的服务器地址格式: %s", addr)
		}
		port, err := strconv.ParseUint(portStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("无效的端口号: %s", portStr)
		}

		serverConfigs = append(serverConfigs, constant.ServerConfig{IpAddr: host, Port: port})
	}

	if len(serverConfigs) == 0 {
		return nil, fmt.Errorf("未配置Nacos服务地址")
	}
	return serverConfigs, nil
}

// Register 注册服务实例并开始发送心跳
func (r *Registrar) Register() error {
	ok, err := r.client.RegisterInstance(vo.RegisterInstanceParam{
		Ip:          r.ip,
		Port:        uint64(r.port),
		ServiceName: r.cfg.ServiceName,
		Weight:      r.cfg.Weight,
		Enable:      true,
		Healthy:     true,
		Ephemeral:   true,
		Metadata:    r.cfg.Metadata,
		GroupName:   r.cfg.Group,
	})
	if err != nil {
		return fmt.Errorf("注册服务实例失败: %w", err)
	}
	if !ok {
		return fmt.Errorf("注册服务实例失败: %s", r.cfg.ServiceName)
	}

	r.log.Info("已注册到Nacos，服务名: %s, 地址: %s:%d", r.cfg.ServiceName, r.ip, r.port)
	r.startHeartbeat()
	return nil
}

func (r *Registrar) startHeartbeat() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return
	}

	stop := make(chan struct{})
	r.stop = stop
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.heartbeat()
			}
		}
	}()
}

func (r *Registrar) heartbeat() {
	_, err := r.client.UpdateInstance(vo.UpdateInstanceParam{
		Ip:          r.ip,
		Port:        uint64(r.port),
		ServiceName: r.cfg.ServiceName,
		Weight:      r.cfg.Weight,
		Enable:      true,
		Healthy:     true,
		Ephemeral:   true,
		Metadata:    r.cfg.Metadata,
		GroupName:   r.cfg.Group,
	})
	if err != nil {
		r.log.WithError(err).Warn("更新服务实例状态失败")
	}
}

// Deregister 停止心跳并注销服务实例
func (r *Registrar) Deregister() error {
	r.mu.Lock()
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
	r.mu.Unlock()
	r.wg.Wait()

	_, err := r.client.DeregisterInstance(vo.DeregisterInstanceParam{
		Ip:          r.ip,
		Port:        uint64(r.port),
		ServiceName: r.cfg.ServiceName,
		Ephemeral:   true,
		GroupName:   r.cfg.Group,
	})
	if err != nil {
		return fmt.Errorf("注销服务实例失败: %w", err)
	}

	r.log.Info("已从Nacos注销服务: %s", r.cfg.ServiceName)
	return nil
}

// localIP 获取第一个非回环IPv4地址
func localIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String(), nil
		}
	}
	return "", fmt.Errorf("无法获取本机IP地址")
}
