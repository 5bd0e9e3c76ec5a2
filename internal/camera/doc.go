// Package camera controla uma câmera de ação ligada ao controlador por um
// link WiFi próprio e um rádio BLE.
//
// # Responsabilidades
//   - sondar a associação WiFi da interface (iw)
//   - acordar a câmera (wake-on-lan) e, sem WiFi, ligar o WiFi pelo BLE (gatttool)
//   - consultar o status e comandar início/fim de captura e sono
//
// # Máquina de estados
// Unknown → WifiDown → WifiUp/Asleep → Awake/Idle → Capturing. O estado não é
// guardado: cada operação pública refaz a sondagem, com tentativas limitadas e
// pausa fixa entre elas. Nenhuma contagem de falhas sobrevive entre chamadas.
//
// # Pré-requisitos
//   - iw e gatttool (bluez) instalados; normalmente executados via sudo
//   - CAP_NET_RAW para prender o socket HTTP à interface
package camera
