package discovery

import (
	"errors"
	"sync"
	"testing"
	"time"

	"fulfillment-service/internal/config"
	"fulfillment-service/internal/logger"

	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNaming struct {
	mu           sync.Mutex
	registered   []vo.RegisterInstanceParam
	deregistered []vo.DeregisterInstanceParam
	heartbeats   int
	registerOK   bool
	registerErr  error
}

func (f *fakeNaming) RegisterInstance(param vo.RegisterInstanceParam) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, param)
	return f.registerOK, f.registerErr
}

func (f *fakeNaming) DeregisterInstance(param vo.DeregisterInstanceParam) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deregistered = append(f.deregistered, param)
	return true, nil
}

func (f *fakeNaming) UpdateInstance(param vo.UpdateInstanceParam) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeats++
	return true, nil
}

func (f *fakeNaming) heartbeatCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heartbeats
}

func TestRegisterHeartbeatDeregister(t *testing.T) {
	naming := &fakeNaming{registerOK: true}
	r := newRegistrar(naming, config.NacosConfig{ServiceName: "fulfillment-service"}, "10.0.0.5", 3000, logger.NewNop())
	r.interval = 5 * time.Millisecond

	require.NoError(t, r.Register())
	require.Len(t, naming.registered, 1)
	assert.Equal(t, "DEFAULT_GROUP", naming.registered[0].GroupName)
	assert.Equal(t, uint64(3000), naming.registered[0].Port)
	assert.Equal(t, "10.0.0.5", naming.registered[0].Ip)

	assert.Eventually(t, func() bool { return naming.heartbeatCount() > 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Deregister())
	require.Len(t, naming.deregistered, 1)
	assert.Equal(t, "fulfillment-service", naming.deregistered[0].ServiceName)
}

func TestRegisterFailure(t *testing.T) {
	naming := &fakeNaming{registerErr: errors.New("connection refused")}
	r := newRegistrar(naming, config.NacosConfig{ServiceName: "fulfillment-service"}, "10.0.0.5", 3000, logger.NewNop())

	assert.Error(t, r.Register())

	naming.registerErr = nil
	assert.Error(t, r.Register(), "注册返回false也视为失败")

	// 未注册成功时注销不会阻塞
	require.NoError(t, r.Deregister())
}

func TestParseServerAddrs(t *testing.T) {
	configs, err := parseServerAddrs("127.0.0.1:8848, nacos.local:8849")
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "nacos.local", configs[1].IpAddr)
	assert.Equal(t, uint64(8849), configs[1].Port)

	_, err = parseServerAddrs("127.0.0.1")
	assert.Error(t, err)

	_, err = parseServerAddrs("127.0.0.1:port")
	assert.Error(t, err)

	_, err = parseServerAddrs("")
	assert.Error(t, err)
}
