// github.com/execuc/v202-receiver decodes the v202 2.4GHz RC protocol received with an nRF24L01+
// radio attached to the SPI bus of a Linux board. The root package contains the small SPI and
// GPIO abstractions the radio driver is written against, with backends for periph, embd and the
// GPIO character device. The nrf24 directory holds the radio driver, v202 the protocol decoder,
// and the cmd directory tree has the receiver daemon and a couple of test tools.
package receiver
