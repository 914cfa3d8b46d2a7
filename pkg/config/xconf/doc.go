// Package xconf 加载 xclog 的配置文件，基于 koanf 实现。
//
// 配置来源可以是文件（按扩展名识别 YAML/JSON）或字节数据（例如
// K8s ConfigMap 挂载内容）。加载后通过 [Config.Unmarshal] 或泛型的
// [Decode] 反序列化到带 koanf 标签的结构体，例如 xrotate.Config：
//
//	cfg, err := xconf.New("/etc/app/log.yaml")
//	rc, err := xconf.Decode[xrotate.Config](cfg, "rotation")
//
// # 不支持热重载
//
// 共享同一个日志文件的所有进程必须使用相同的轮转参数。运行中修改参数
// 只会让部分进程生效，导致各进程对阈值、备份数量与边界的判断出现分歧，
// 因此 xconf 只在启动时加载一次，不提供 Reload 与文件监视。
//
// # Unmarshal
//
// 反序列化使用 mapstructure，允许弱类型转换：字符串 "8080" 可转为 int，
// "50ms" 可转为 time.Duration。
package xconf
